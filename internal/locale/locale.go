package locale

import (
	"fmt"
	"strings"
)

type Locale string

const (
	FR Locale = "fr"
	EN Locale = "en"
)

// Supported lists the closed set of locales, default first.
var Supported = []Locale{FR, EN}

// Strings is the per-locale text the assistant depends on.
type Strings struct {
	Greeting          string
	Instruction       string
	MissingCredential string
	EmptyCompletion   string
	ConnectionError   string

	Placeholder     string
	AddedToList     string
	RemovedFromList string
	NoResults       string

	// Browse row titles keyed by row key.
	Rows map[string]string
}

// RowTitle returns the title of row key, or the key itself if untitled.
func (s Strings) RowTitle(key string) string {
	if title, ok := s.Rows[key]; ok {
		return title
	}
	return key
}

var tables = map[Locale]Strings{
	FR: {
		Greeting: "Bonjour ! Je suis CineBot. Envie d'un film spécifique ce soir ? Dites-moi ce que vous aimez !",
		Instruction: "Tu es 'CineBot', un expert en cinéma passionné et utile pour une application de streaming.\n" +
			"Tes réponses doivent être courtes, engageantes et en français.\n" +
			"Suggère 3 films correspondant à la demande de l'utilisateur avec une très brève description pour chacun.\n" +
			"N'utilise pas de formatage Markdown complexe (comme les tableaux), utilise des listes simples.",
		MissingCredential: "Clé API manquante. Veuillez configurer votre clé API pour utiliser l'assistant.",
		EmptyCompletion:   "Désolé, je n'ai pas pu générer de recommandation pour le moment.",
		ConnectionError:   "Une erreur est survenue lors de la connexion à l'assistant intelligent.",

		Placeholder:     "Conseille-moi un film...",
		AddedToList:     "Ajouté à Ma Liste",
		RemovedFromList: "Retiré de Ma Liste",
		NoResults:       "Aucun résultat trouvé.",

		Rows: map[string]string{
			"my_list":  "Ma Liste",
			"trending": "Top 10 en France aujourd'hui",
			"action":   "Action & Aventure",
			"comedy":   "Comédies",
			"drama":    "Drames primés",
			"scifi":    "Science-Fiction & Futur",
			"thriller": "Thrillers & Mystères",
		},
	},
	EN: {
		Greeting: "Hello! I am CineBot. Looking for a specific movie tonight? Tell me what you like!",
		Instruction: "You are 'CineBot', a passionate and helpful movie expert for a streaming app.\n" +
			"Your answers must be short, engaging, and in English.\n" +
			"Suggest 3 movies matching the user's request with a very brief description for each.\n" +
			"Do not use complex Markdown formatting (like tables), use simple lists.",
		MissingCredential: "API Key missing. Please configure your API Key to use the assistant.",
		EmptyCompletion:   "Sorry, I couldn't generate a recommendation at this time.",
		ConnectionError:   "An error occurred while connecting to the AI assistant.",

		Placeholder:     "Recommend me a movie...",
		AddedToList:     "Added to My List",
		RemovedFromList: "Removed from My List",
		NoResults:       "No results found.",

		Rows: map[string]string{
			"my_list":  "My List",
			"trending": "Top 10 in France Today",
			"action":   "Action & Adventure",
			"comedy":   "Comedies",
			"drama":    "Award-Winning Dramas",
			"scifi":    "Sci-Fi & Fantasy",
			"thriller": "Thrillers & Mysteries",
		},
	},
}

// For returns the string table of l. Unknown locales get the French table.
func For(l Locale) Strings {
	if s, ok := tables[l]; ok {
		return s
	}
	return tables[FR]
}

func (l Locale) Valid() bool {
	_, ok := tables[l]
	return ok
}

// Parse accepts "fr"/"en" in any case, with or without a region suffix ("en-US").
func Parse(s string) (Locale, error) {
	tag := strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		tag = tag[:i]
	}
	l := Locale(tag)
	if !l.Valid() {
		return "", fmt.Errorf("unsupported locale %q", s)
	}
	return l, nil
}
