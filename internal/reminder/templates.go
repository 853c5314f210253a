package reminder

import (
	"fmt"
	"strings"
)

// Template is a localized notification text pair. Body takes one
// formatting argument (the meal label for meals, the goal in ml for
// water).
type Template struct {
	Title string
	Body  string
}

const defaultCountry = "default"

// Message text per country code. Selection is a plain table lookup with a
// guaranteed default entry; an unknown country always resolves to the
// default, never to a zero template.
var mealTemplates = map[string]Template{
	defaultCountry: {Title: "Meal reminder", Body: "Almost time for %s. Don't forget to log it!"},
	"BR":           {Title: "Hora da refeição", Body: "Está quase na hora de %s. Não esqueça de registrar!"},
	"JP":           {Title: "お食事の時間", Body: "もうすぐ%sの時間です。記録をお忘れなく!"},
}

var waterTemplates = map[string]Template{
	defaultCountry: {Title: "Time to hydrate", Body: "Drink some water — you're still below your %dml goal."},
	"BR":           {Title: "Hora de se hidratar", Body: "Beba um pouco de água — você ainda está abaixo da meta de %dml."},
	"JP":           {Title: "水分補給の時間", Body: "お水を飲みましょう。目標の%dmlまであと少しです。"},
}

var mealLabels = map[string]map[string]string{
	defaultCountry: {"breakfast": "breakfast", "lunch": "lunch", "snack": "a snack", "dinner": "dinner"},
	"BR":           {"breakfast": "café da manhã", "lunch": "almoço", "snack": "lanche", "dinner": "jantar"},
	"JP":           {"breakfast": "朝食", "lunch": "昼食", "snack": "間食", "dinner": "夕食"},
}

// MealMessage renders the meal reminder title/body for a country code.
func MealMessage(countryCode, mealType string) (title, body string) {
	t := lookup(mealTemplates, countryCode)
	return t.Title, fmt.Sprintf(t.Body, MealLabel(countryCode, mealType))
}

// WaterMessage renders the water reminder title/body for a country code.
func WaterMessage(countryCode string, goalMl int) (title, body string) {
	t := lookup(waterTemplates, countryCode)
	return t.Title, fmt.Sprintf(t.Body, goalMl)
}

// MealLabel returns the localized display name for a meal type.
func MealLabel(countryCode, mealType string) string {
	labels := mealLabels[normalize(countryCode)]
	if labels == nil {
		labels = mealLabels[defaultCountry]
	}
	if l, ok := labels[mealType]; ok {
		return l
	}
	return mealType
}

func lookup(table map[string]Template, countryCode string) Template {
	if t, ok := table[normalize(countryCode)]; ok {
		return t
	}
	return table[defaultCountry]
}

func normalize(countryCode string) string {
	return strings.ToUpper(strings.TrimSpace(countryCode))
}
