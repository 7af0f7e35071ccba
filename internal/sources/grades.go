package sources

import "strings"

// GradeInfo describes a Nutri-Score grade or a NOVA processing group.
type GradeInfo struct {
	Grade       string `json:"grade,omitempty"`
	Group       int    `json:"group,omitempty"`
	Color       string `json:"color"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

var nutriscoreGrades = map[string]GradeInfo{
	"A": {Grade: "A", Color: "dark-green", Label: "Very Good Nutritional Quality", Description: "Foods with the best nutritional quality"},
	"B": {Grade: "B", Color: "light-green", Label: "Good Nutritional Quality", Description: "Foods with good nutritional quality"},
	"C": {Grade: "C", Color: "yellow", Label: "Average Nutritional Quality", Description: "Foods with average nutritional quality"},
	"D": {Grade: "D", Color: "orange", Label: "Poor Nutritional Quality", Description: "Foods with poor nutritional quality"},
	"E": {Grade: "E", Color: "red", Label: "Very Poor Nutritional Quality", Description: "Foods with very poor nutritional quality"},
}

var novaGroups = map[int]GradeInfo{
	1: {Group: 1, Color: "green", Label: "Unprocessed or Minimally Processed", Description: "Fresh, dried, frozen foods with no added ingredients"},
	2: {Group: 2, Color: "yellow", Label: "Processed Culinary Ingredients", Description: "Oils, butter, sugar, salt extracted from foods"},
	3: {Group: 3, Color: "orange", Label: "Processed Foods", Description: "Foods with added salt, sugar, or fat"},
	4: {Group: 4, Color: "red", Label: "Ultra-Processed Foods", Description: "Industrial formulations with many additives"},
}

// NutriscoreInfo describes a Nutri-Score grade. Unknown grades are reported as not rated.
func NutriscoreInfo(grade string) GradeInfo {
	if info, ok := nutriscoreGrades[strings.ToUpper(strings.TrimSpace(grade))]; ok {
		return info
	}
	return GradeInfo{Grade: "Unknown", Color: "gray", Label: "Not Rated", Description: "Nutritional quality not assessed"}
}

// NovaInfo describes a NOVA group. ok is false outside 1-4.
func NovaInfo(group int) (GradeInfo, bool) {
	info, ok := novaGroups[group]
	return info, ok
}
