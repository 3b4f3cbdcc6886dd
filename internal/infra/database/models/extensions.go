package models

import (
	"fmt"

	"github.com/sorabase/catalog/internal/domain"
)

// One extension row exists per Work, sharing its id. Each variant
// implements domain.Extension with an explicit setter table so the
// rule-driven upserter assigns fields without reflection.

type GameExtension struct {
	WorkID    string   `json:"workId" gorm:"primaryKey;type:text"`
	Work      Work     `json:"-" gorm:"foreignKey:WorkID;references:ID;constraint:OnDelete:CASCADE;"`
	Developer *string  `json:"developer" gorm:"type:text;index"`
	Publisher *string  `json:"publisher" gorm:"type:text"`
	Platforms []string `json:"platforms" gorm:"serializer:json;type:text"`
	Genres    []string `json:"genres" gorm:"serializer:json;type:text"`
}

func (e *GameExtension) ExtDomain() domain.Domain { return domain.DomainGame }
func (e *GameExtension) WorkRef() string          { return e.WorkID }
func (e *GameExtension) SetWorkRef(id string)     { e.WorkID = id }
func (e *GameExtension) MergeKeyColumn() string   { return "developer" }
func (e *GameExtension) MergeKey() string         { return deref(e.Developer) }

func (e *GameExtension) Assign(field string, value any) error {
	switch field {
	case "developer":
		return assignString(&e.Developer, value)
	case "publisher":
		return assignString(&e.Publisher, value)
	case "platforms":
		return assignList(&e.Platforms, value)
	case "genres":
		return assignList(&e.Genres, value)
	default:
		return fmt.Errorf("no field %q on game extension", field)
	}
}

func (e *GameExtension) FillFrom(other domain.Extension) {
	o, ok := other.(*GameExtension)
	if !ok {
		return
	}
	fillString(&e.Developer, o.Developer)
	fillString(&e.Publisher, o.Publisher)
	fillList(&e.Platforms, o.Platforms)
	fillList(&e.Genres, o.Genres)
}

type WebtoonExtension struct {
	WorkID string   `json:"workId" gorm:"primaryKey;type:text"`
	Work   Work     `json:"-" gorm:"foreignKey:WorkID;references:ID;constraint:OnDelete:CASCADE;"`
	Author *string  `json:"author" gorm:"type:text;index"`
	Status *string  `json:"status" gorm:"type:text"`
	Genres []string `json:"genres" gorm:"serializer:json;type:text"`
}

func (e *WebtoonExtension) ExtDomain() domain.Domain { return domain.DomainWebtoon }
func (e *WebtoonExtension) WorkRef() string          { return e.WorkID }
func (e *WebtoonExtension) SetWorkRef(id string)     { e.WorkID = id }
func (e *WebtoonExtension) MergeKeyColumn() string   { return "author" }
func (e *WebtoonExtension) MergeKey() string         { return deref(e.Author) }

func (e *WebtoonExtension) Assign(field string, value any) error {
	switch field {
	case "author":
		return assignString(&e.Author, value)
	case "status":
		return assignString(&e.Status, value)
	case "genres":
		return assignList(&e.Genres, value)
	default:
		return fmt.Errorf("no field %q on webtoon extension", field)
	}
}

func (e *WebtoonExtension) FillFrom(other domain.Extension) {
	o, ok := other.(*WebtoonExtension)
	if !ok {
		return
	}
	fillString(&e.Author, o.Author)
	fillString(&e.Status, o.Status)
	fillList(&e.Genres, o.Genres)
}

type WebnovelExtension struct {
	WorkID string   `json:"workId" gorm:"primaryKey;type:text"`
	Work   Work     `json:"-" gorm:"foreignKey:WorkID;references:ID;constraint:OnDelete:CASCADE;"`
	Author *string  `json:"author" gorm:"type:text;index"`
	Status *string  `json:"status" gorm:"type:text"`
	Genres []string `json:"genres" gorm:"serializer:json;type:text"`
}

func (e *WebnovelExtension) ExtDomain() domain.Domain { return domain.DomainWebnovel }
func (e *WebnovelExtension) WorkRef() string          { return e.WorkID }
func (e *WebnovelExtension) SetWorkRef(id string)     { e.WorkID = id }
func (e *WebnovelExtension) MergeKeyColumn() string   { return "author" }
func (e *WebnovelExtension) MergeKey() string         { return deref(e.Author) }

func (e *WebnovelExtension) Assign(field string, value any) error {
	switch field {
	case "author":
		return assignString(&e.Author, value)
	case "status":
		return assignString(&e.Status, value)
	case "genres":
		return assignList(&e.Genres, value)
	default:
		return fmt.Errorf("no field %q on webnovel extension", field)
	}
}

func (e *WebnovelExtension) FillFrom(other domain.Extension) {
	o, ok := other.(*WebnovelExtension)
	if !ok {
		return
	}
	fillString(&e.Author, o.Author)
	fillString(&e.Status, o.Status)
	fillList(&e.Genres, o.Genres)
}

type MovieExtension struct {
	WorkID         string   `json:"workId" gorm:"primaryKey;type:text"`
	Work           Work     `json:"-" gorm:"foreignKey:WorkID;references:ID;constraint:OnDelete:CASCADE;"`
	Director       *string  `json:"director" gorm:"type:text"`
	RuntimeMinutes *int64   `json:"runtimeMinutes" gorm:"type:bigint"`
	Country        *string  `json:"country" gorm:"type:text"`
	Genres         []string `json:"genres" gorm:"serializer:json;type:text"`
}

func (e *MovieExtension) ExtDomain() domain.Domain { return domain.DomainMovie }
func (e *MovieExtension) WorkRef() string          { return e.WorkID }
func (e *MovieExtension) SetWorkRef(id string)     { e.WorkID = id }

// Movies never merge: every ingested record becomes its own work.
func (e *MovieExtension) MergeKeyColumn() string { return "" }
func (e *MovieExtension) MergeKey() string       { return "" }

func (e *MovieExtension) Assign(field string, value any) error {
	switch field {
	case "director":
		return assignString(&e.Director, value)
	case "runtimeMinutes":
		return assignInt(&e.RuntimeMinutes, value)
	case "country":
		return assignString(&e.Country, value)
	case "genres":
		return assignList(&e.Genres, value)
	default:
		return fmt.Errorf("no field %q on movie extension", field)
	}
}

func (e *MovieExtension) FillFrom(other domain.Extension) {
	o, ok := other.(*MovieExtension)
	if !ok {
		return
	}
	fillString(&e.Director, o.Director)
	fillInt(&e.RuntimeMinutes, o.RuntimeMinutes)
	fillString(&e.Country, o.Country)
	fillList(&e.Genres, o.Genres)
}

type TVExtension struct {
	WorkID  string   `json:"workId" gorm:"primaryKey;type:text"`
	Work    Work     `json:"-" gorm:"foreignKey:WorkID;references:ID;constraint:OnDelete:CASCADE;"`
	Network *string  `json:"network" gorm:"type:text"`
	Seasons *int64   `json:"seasons" gorm:"type:bigint"`
	Status  *string  `json:"status" gorm:"type:text"`
	Genres  []string `json:"genres" gorm:"serializer:json;type:text"`
}

func (e *TVExtension) ExtDomain() domain.Domain { return domain.DomainTV }
func (e *TVExtension) WorkRef() string          { return e.WorkID }
func (e *TVExtension) SetWorkRef(id string)     { e.WorkID = id }

// TV shows never merge either.
func (e *TVExtension) MergeKeyColumn() string { return "" }
func (e *TVExtension) MergeKey() string       { return "" }

func (e *TVExtension) Assign(field string, value any) error {
	switch field {
	case "network":
		return assignString(&e.Network, value)
	case "seasons":
		return assignInt(&e.Seasons, value)
	case "status":
		return assignString(&e.Status, value)
	case "genres":
		return assignList(&e.Genres, value)
	default:
		return fmt.Errorf("no field %q on tv extension", field)
	}
}

func (e *TVExtension) FillFrom(other domain.Extension) {
	o, ok := other.(*TVExtension)
	if !ok {
		return
	}
	fillString(&e.Network, o.Network)
	fillInt(&e.Seasons, o.Seasons)
	fillString(&e.Status, o.Status)
	fillList(&e.Genres, o.Genres)
}

// NewExtension returns an empty extension of the given domain.
func NewExtension(d domain.Domain) domain.Extension {
	switch d {
	case domain.DomainGame:
		return &GameExtension{}
	case domain.DomainWebtoon:
		return &WebtoonExtension{}
	case domain.DomainWebnovel:
		return &WebnovelExtension{}
	case domain.DomainMovie:
		return &MovieExtension{}
	case domain.DomainTV:
		return &TVExtension{}
	default:
		return nil
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func assignString(target **string, value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	if s == "" {
		return nil
	}
	*target = &s
	return nil
}

func assignInt(target **int64, value any) error {
	n, ok := value.(int64)
	if !ok {
		return fmt.Errorf("expected int64, got %T", value)
	}
	*target = &n
	return nil
}

func assignList(target *[]string, value any) error {
	list, ok := value.([]string)
	if !ok {
		return fmt.Errorf("expected list, got %T", value)
	}
	if len(list) > 0 {
		*target = list
	}
	return nil
}

func fillString(target **string, src *string) {
	if *target == nil && src != nil {
		*target = src
	}
}

func fillInt(target **int64, src *int64) {
	if *target == nil && src != nil {
		*target = src
	}
}

func fillList(target *[]string, src []string) {
	if len(*target) == 0 && len(src) > 0 {
		*target = src
	}
}
