package models

import "time"

// Theme groups sets, e.g. "City" or "Technic".
type Theme struct {
	ID   int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name string `json:"name" gorm:"type:varchar(255)"`
}

// Set is a single catalog entry. SetNum is supplied by the caller.
type Set struct {
	SetNum   string `json:"set_num" gorm:"primaryKey;type:varchar(255)" validate:"required,max=255"`
	Name     string `json:"name" gorm:"type:varchar(255)" validate:"required,max=255"`
	Year     int    `json:"year" validate:"gte=0"` // 0 when the release year is unknown
	NumParts int    `json:"num_parts" validate:"gte=0"`
	ThemeID  int    `json:"theme_id" gorm:"index" validate:"required,gt=0"`
	ImgURL   string `json:"img_url" gorm:"type:varchar(1024)" validate:"omitempty,url,max=1024"`
	Theme    *Theme `json:"theme,omitempty" gorm:"foreignKey:ThemeID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" validate:"-"`
}

// SetPatch holds the fields of a partial set update. Nil fields are left untouched.
type SetPatch struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=255"`
	Year     *int    `json:"year" validate:"omitempty,gte=0"`
	NumParts *int    `json:"num_parts" validate:"omitempty,gte=0"`
	ThemeID  *int    `json:"theme_id" validate:"omitempty,gt=0"`
	ImgURL   *string `json:"img_url" validate:"omitempty,url|len=0,max=1024"`
}

// Columns returns the patch as a column/value map suitable for an UPDATE.
func (p SetPatch) Columns() map[string]any {
	cols := make(map[string]any)
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.Year != nil {
		cols["year"] = *p.Year
	}
	if p.NumParts != nil {
		cols["num_parts"] = *p.NumParts
	}
	if p.ThemeID != nil {
		cols["theme_id"] = *p.ThemeID
	}
	if p.ImgURL != nil {
		cols["img_url"] = *p.ImgURL
	}
	return cols
}

// CatalogEventType names a change to the catalog.
type CatalogEventType string

const (
	SetCreated CatalogEventType = "set.created"
	SetUpdated CatalogEventType = "set.updated"
	SetDeleted CatalogEventType = "set.deleted"
)

// CatalogEvent is published after a committed catalog write.
type CatalogEvent struct {
	Type   CatalogEventType `json:"type"`
	SetNum string           `json:"set_num"`
	At     time.Time        `json:"at"`
}

// CatalogImport is the on-disk format read by the import command.
type CatalogImport struct {
	Themes []Theme `json:"themes"`
	Sets   []Set   `json:"sets"`
}
