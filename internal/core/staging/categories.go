package staging

import "fmt"

// Category identifies one of the fixed file categories a transformation may
// produce. Each category maps to exactly one production directory.
type Category string

const (
	CategoryScripts  Category = "scripts"
	CategoryCommands Category = "commands"
	CategoryAgents   Category = "agents"
	CategorySkills   Category = "skills"
)

// Categories returns the fixed category list in stable order.
func Categories() []Category {
	return []Category{CategoryScripts, CategoryCommands, CategoryAgents, CategorySkills}
}

// ParseCategory validates a category name.
func ParseCategory(name string) (Category, error) {
	for _, c := range Categories() {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", name)
}
