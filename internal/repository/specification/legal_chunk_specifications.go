package specification

import (
	"gorm.io/gorm"
)

type ByDomain struct {
	Domain string
}

func (s ByDomain) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("domain = ?", s.Domain)
}

type BySubDomain struct {
	SubDomain string
}

func (s BySubDomain) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("sub_domain = ?", s.SubDomain)
}

type BySource struct {
	Source string
}

func (s BySource) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("source = ?", s.Source)
}
