package models

// NavLink is one entry of a menu.
type NavLink struct {
	ImgURL string `yaml:"imgURL" json:"imgURL"`
	Route  string `yaml:"route" json:"route"`
	Label  string `yaml:"label" json:"label"`
}
