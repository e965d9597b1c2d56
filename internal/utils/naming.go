package utils

import (
	"regexp"
	"strings"

	"github.com/jinzhu/inflection"
)

var (
	matchFirstCap = regexp.MustCompile("(.)([A-Z][a-z]+)")
	matchAllCap   = regexp.MustCompile("([a-z0-9])([A-Z])")
	matchSeps     = regexp.MustCompile(`[\s\-.]+`)
)

// ToSnakeCase converts a string from CamelCase to snake_case.
func ToSnakeCase(str string) string {
	snake := matchSeps.ReplaceAllString(strings.TrimSpace(str), "_")
	snake = matchFirstCap.ReplaceAllString(snake, "${1}_${2}")
	snake = matchAllCap.ReplaceAllString(snake, "${1}_${2}")
	return strings.ToLower(snake)
}

// CollectionName derives the storage collection (table, key prefix) of a model name:
// "BlogPost" becomes "blog_posts".
func CollectionName(modelName string) string {
	snake := ToSnakeCase(modelName)
	if snake == "" {
		return ""
	}
	parts := strings.Split(snake, "_")
	parts[len(parts)-1] = inflection.Plural(parts[len(parts)-1])
	return strings.Join(parts, "_")
}
