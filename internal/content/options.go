package content

import (
	"fmt"
	"net/url"
)

// Types maps display names to OpenTDB type codes.
var Types = map[string]string{
	"Multiple Choice": TypeMultiple,
	"True or False":   TypeBoolean,
}

// Difficulties maps display names to OpenTDB difficulty codes.
var Difficulties = map[string]string{
	"Easy":   DifficultyEasy,
	"Medium": DifficultyMedium,
	"Hard":   DifficultyHard,
}

// Categories maps display names to OpenTDB category codes.
var Categories = map[string]int{
	"General Knowledge":                      9,
	"Entertainment, Books":                   10,
	"Entertainment, Film":                    11,
	"Entertainment, Music":                   12,
	"Entertainment, Musicals & Theatres":     13,
	"Entertainment, Television":              14,
	"Entertainment, Video Games":             15,
	"Entertainment, Board Games":             16,
	"Science & Nature":                       17,
	"Science, Computers":                     18,
	"Science, Mathematics":                   19,
	"Mythology":                              20,
	"Sports":                                 21,
	"Geography":                              22,
	"History":                                23,
	"Politics":                               24,
	"Art":                                    25,
	"Celebrities":                            26,
	"Animals":                                27,
	"Vehicles":                               28,
	"Entertainment, Comics":                  29,
	"Science, Gadgets":                       30,
	"Entertainment, Japanese Anime & Manga":  31,
	"Entertainment, Cartoon & Animations":    32,
}

// FilterOptions select which questions the trivia source should return.
// Empty or "Default" fields leave the source's default in place.
type FilterOptions struct {
	Type       string `json:"type"`
	Difficulty string `json:"difficulty"`
	Category   string `json:"category"`
}

// Validate checks each non-empty field against the known option tables.
func (f FilterOptions) Validate() error {
	if !validOption(f.Type, "Default") {
		if _, ok := Types[f.Type]; !ok {
			return fmt.Errorf("%w: %q is not a valid type", ErrInvalidOption, f.Type)
		}
	}
	if !validOption(f.Difficulty, "Default") {
		if _, ok := Difficulties[f.Difficulty]; !ok {
			return fmt.Errorf("%w: %q is not a valid difficulty", ErrInvalidOption, f.Difficulty)
		}
	}
	if !validOption(f.Category, "Default") {
		if _, ok := Categories[f.Category]; !ok {
			return fmt.Errorf("%w: %q is not a valid category", ErrInvalidOption, f.Category)
		}
	}
	return nil
}

func validOption(value, def string) bool {
	return value == "" || value == def
}

// Normalize maps "Default" selections back to empty fields.
func (f FilterOptions) Normalize() FilterOptions {
	if f.Type == "Default" {
		f.Type = ""
	}
	if f.Difficulty == "Default" {
		f.Difficulty = ""
	}
	if f.Category == "Default" {
		f.Category = ""
	}
	return f
}

// Values encodes the selected options as source query parameters,
// skipping unset fields so the source default applies.
func (f FilterOptions) Values() url.Values {
	values := url.Values{}
	if code, ok := Types[f.Type]; ok {
		values.Set("type", code)
	}
	if code, ok := Difficulties[f.Difficulty]; ok {
		values.Set("difficulty", code)
	}
	if code, ok := Categories[f.Category]; ok {
		values.Set("category", fmt.Sprint(code))
	}
	return values
}
