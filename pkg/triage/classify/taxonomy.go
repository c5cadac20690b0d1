package classify

import "strings"

// DomainUnknown marks an unclassifiable issue.
const DomainUnknown = "Unknown"

// Domain is one entry in the closed legal taxonomy.
type Domain struct {
	Name       string
	SubDomains []string
}

// Taxonomy is the closed set of legal domains the classifier may emit.
// Order matters: it is rendered into the prompt and used for substring
// correction in declaration order.
var Taxonomy = []Domain{
	{
		Name: "Consumer Law",
		SubDomains: []string{
			"Defective Product",
			"Service Deficiency",
			"Unfair Trade Practice",
			"E-commerce Dispute",
			"Banking/Financial Service",
		},
	},
	{
		Name: "Labour Law",
		SubDomains: []string{
			"Wage Dispute",
			"Wrongful Termination",
			"Workplace Harassment",
			"Unpaid Benefits",
			"Working Conditions",
		},
	},
	{
		Name: "Criminal Law",
		SubDomains: []string{
			"Theft/Robbery",
			"Assault/Violence",
			"Fraud/Cheating",
			"Cyber Crime",
			"Domestic Violence",
		},
	},
	{
		Name: "Family Law",
		SubDomains: []string{
			"Divorce",
			"Child Custody",
			"Maintenance/Alimony",
			"Domestic Violence",
			"Inheritance",
		},
	},
	{
		Name: "Property Law",
		SubDomains: []string{
			"Property Dispute",
			"Landlord-Tenant",
			"Real Estate Fraud",
			"Encroachment",
			"Title Issues",
		},
	},
	{
		Name: "Civil Law",
		SubDomains: []string{
			"Contract Dispute",
			"Recovery of Money",
			"Defamation",
			"Negligence",
			"Injunction",
		},
	},
	{
		Name: "Constitutional Law",
		SubDomains: []string{
			"Fundamental Rights",
			"RTI Query",
			"Government Action",
			"Discrimination",
		},
	},
}

// ResolveDomain validates a reported domain against the taxonomy. Inexact
// names are corrected by case-insensitive substring match; anything else
// falls back to Unknown.
func ResolveDomain(domain string) string {
	if domain == DomainUnknown {
		return DomainUnknown
	}
	for _, d := range Taxonomy {
		if d.Name == domain {
			return d.Name
		}
	}
	lower := strings.ToLower(domain)
	for _, d := range Taxonomy {
		if strings.Contains(strings.ToLower(d.Name), lower) && lower != "" {
			return d.Name
		}
	}
	return DomainUnknown
}

// ResolveSubDomain validates a sub-domain within a resolved domain,
// correcting by substring match and defaulting to the domain's first
// sub-domain.
func ResolveSubDomain(domain, subDomain string) string {
	for _, d := range Taxonomy {
		if d.Name != domain {
			continue
		}
		for _, sub := range d.SubDomains {
			if sub == subDomain {
				return sub
			}
		}
		lower := strings.ToLower(subDomain)
		if lower != "" {
			for _, sub := range d.SubDomains {
				if strings.Contains(strings.ToLower(sub), lower) {
					return sub
				}
			}
		}
		if len(d.SubDomains) > 0 {
			return d.SubDomains[0]
		}
		return "General"
	}
	return DomainUnknown
}

// FormatTaxonomy renders the taxonomy for the classification prompt.
func FormatTaxonomy() string {
	var b strings.Builder
	for _, d := range Taxonomy {
		b.WriteString("\n")
		b.WriteString(d.Name)
		b.WriteString(":\n")
		for _, sub := range d.SubDomains {
			b.WriteString("  - ")
			b.WriteString(sub)
			b.WriteString("\n")
		}
	}
	return b.String()
}
