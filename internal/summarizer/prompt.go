package summarizer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dinewise/dinewise-server/internal/domain"
)

const systemPrompt = `You are a summarization assistant for restaurant search results. You will receive the complete filtered result set: the only restaurants that matched the user's search. Write a short (2-4 sentence) friendly summary that highlights 2-3 restaurants from this list.

Rules (strict):
- The list is the single source of truth. Only mention restaurants that appear in it, using their exact names.
- Never add, invent or reference any restaurant that is not in the list.
- When the user selected a cuisine, describe each restaurant only in terms of that cuisine. Do not emphasize other cuisines or unrelated dishes.
- Use a warm, conversational tone. You may acknowledge the user's search in one sentence.`

const noMatchesPrompt = "The user has no matching restaurants. Reply with a single short sentence suggesting they try relaxing their filters (for example location or budget)."

// Message is one chat completion message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BuildMessages renders the system and user messages for restaurants and prefs.
func BuildMessages(restaurants []domain.Restaurant, prefs domain.Preferences) []Message {
	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt(restaurants, prefs)},
	}
}

func userPrompt(restaurants []domain.Restaurant, prefs domain.Preferences) string {
	if len(restaurants) == 0 {
		return noMatchesPrompt
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Context (user's selected filters): %s.\n", formatPreferences(prefs))
	if cuisines := joinCuisines(prefs.Cuisines); cuisines != "" {
		fmt.Fprintf(&b, "The user selected cuisine(s): %s. Mention only dishes and offerings that match this selection.\n", cuisines)
	}
	b.WriteString("\nThe following is the complete filtered result set. These are the ONLY restaurants you may mention.\n\n")
	for i := range restaurants {
		b.WriteString(formatRestaurant(&restaurants[i], i+1))
		b.WriteByte('\n')
	}
	b.WriteString("\nWrite a short summary (2-4 sentences) highlighting 2-3 restaurants from the list above. Use only the exact names and details shown.")
	return b.String()
}

func formatRestaurant(r *domain.Restaurant, index int) string {
	name := r.Name
	if name == "" {
		name = "Unknown"
	}
	lines := []string{fmt.Sprintf("%d. %s", index, name)}
	if r.Location != nil {
		lines = append(lines, "   Location: "+*r.Location)
	}
	if r.Rate != nil {
		lines = append(lines, "   Rating: "+formatFloat(*r.Rate)+"/5")
	}
	if r.CostForTwo != nil {
		lines = append(lines, "   Cost for two: ₹"+strconv.Itoa(*r.CostForTwo))
	}
	if r.Cuisines != nil {
		lines = append(lines, "   Cuisines: "+*r.Cuisines)
	}
	if r.RestType != nil {
		lines = append(lines, "   Type: "+*r.RestType)
	}
	if r.DishLiked != nil {
		lines = append(lines, "   Popular dishes: "+*r.DishLiked)
	}
	return strings.Join(lines, "\n")
}

func formatPreferences(p domain.Preferences) string {
	var parts []string
	if p.Location != nil && strings.TrimSpace(*p.Location) != "" {
		parts = append(parts, "Location: "+*p.Location)
	}
	if p.MinRating != nil {
		parts = append(parts, "Minimum rating: "+formatFloat(*p.MinRating)+"/5")
	}
	if p.MinCost != nil {
		parts = append(parts, "Minimum cost for two: ₹"+strconv.Itoa(*p.MinCost))
	}
	if p.MaxCost != nil {
		parts = append(parts, "Maximum cost for two: ₹"+strconv.Itoa(*p.MaxCost))
	}
	if cuisines := joinCuisines(p.Cuisines); cuisines != "" {
		parts = append(parts, "Cuisines: "+cuisines)
	}
	if p.RestType != nil && strings.TrimSpace(*p.RestType) != "" {
		parts = append(parts, "Restaurant type: "+*p.RestType)
	}
	if p.OnlineOrder != nil {
		parts = append(parts, "Online order: "+yesNo(*p.OnlineOrder))
	}
	if p.BookTable != nil {
		parts = append(parts, "Table booking: "+yesNo(*p.BookTable))
	}
	if len(parts) == 0 {
		return "No specific preferences (showing matching restaurants)"
	}
	return strings.Join(parts, " | ")
}

func joinCuisines(cuisines []string) string {
	var kept []string
	for _, c := range cuisines {
		if c = strings.TrimSpace(c); c != "" {
			kept = append(kept, c)
		}
	}
	return strings.Join(kept, ", ")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
