package respond

import (
	"fmt"
	"strings"
)

// Disclaimer is appended to every piece of guidance that leaves the pipeline.
const Disclaimer = `**Important Disclaimer**
This is procedural guidance only, NOT legal advice. The information provided:
- Is general in nature and may not apply to your specific situation
- Should not be used as a substitute for professional legal counsel
- May not reflect the most recent legal developments

Please consult a qualified legal professional for advice specific to your case.
For free legal aid, contact your nearest Legal Services Authority or call 15100.`

// ErrorResponse is the terminal reply when the pipeline cannot proceed.
const ErrorResponse = `I apologize, but I encountered an issue processing your request.

Please try:
1. Rephrasing your question
2. Providing more specific details
3. Starting a new conversation

If the problem persists, you can reach the National Legal Services Authority (NALSA) helpline at 15100 for free legal assistance.`

// OutOfScopeResponse answers queries that are not about Indian legal matters.
const OutOfScopeResponse = `I'm designed to help with Indian legal procedural matters only.

I can help with:
- Understanding legal procedures and processes
- Identifying the right authority or court for your issue
- Explaining required documents and timelines
- Pointing you to relevant laws and acts

I cannot help with:
- Legal advice or case predictions
- Medical, financial, or personal advice
- Matters outside Indian law
- Confidential or sensitive consultations

Please rephrase your query if it's related to Indian legal procedures.`

// GenericSafeResponse replaces output the safety validator could not clear.
const GenericSafeResponse = `I am unable to share the generated guidance because it did not pass our safety checks.

For help with your situation:
1. Contact your nearest Legal Services Authority for free legal assistance
2. Call the NALSA helpline: 15100
3. Visit https://nalsa.gov.in for more information

` + Disclaimer

// EnsureDisclaimer appends the disclaimer unless the text already carries it.
func EnsureDisclaimer(text string) string {
	if strings.Contains(text, Disclaimer) {
		return text
	}
	return text + "\n\n" + Disclaimer
}

// FallbackGuidance is the deterministic reply used when generation fails or
// no documents could be retrieved.
func FallbackGuidance(domain string) string {
	if domain == "" || domain == "Unknown" {
		domain = "legal"
	}

	return fmt.Sprintf(`I understand you have a %s related issue.

While I couldn't retrieve specific legal documents at this moment, here are some general steps you can take:

1. **Document Everything**: Keep records of all relevant documents, communications, and evidence.

2. **Seek Legal Aid**: Contact your nearest Legal Services Authority for free legal assistance:
   - National Legal Services Authority (NALSA): 15100
   - Visit: https://nalsa.gov.in

3. **File a Complaint**: Depending on your issue:
   - Consumer complaints: https://consumerhelpline.gov.in
   - General grievances: https://pgportal.gov.in

4. **Consult a Lawyer**: For specific advice on your situation, please consult a qualified legal professional.

%s`, strings.ToLower(domain), Disclaimer)
}
