package notify

import (
	"fmt"
	"strings"

	"github.com/Shrikant133/ElevAIte/internal/model"
)

// FormatRecommendations formats a ranked recommendation list as the body of
// the daily digest email.
func FormatRecommendations(fullName string, recs []model.Recommendation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", fullName)
	b.WriteString("Here are your personalized opportunity recommendations for today:\n")

	for i, rec := range recs {
		opp := rec.Opportunity
		fmt.Fprintf(&b, "\n%d. %s at %s\n", i+1, opp.Title, rec.Organization.Name)
		location := opp.Location
		if location == "" {
			location = "Location not specified"
		}
		fmt.Fprintf(&b, "   %s\n", location)
		if opp.SalaryMin != nil {
			fmt.Fprintf(&b, "   From $%d\n", *opp.SalaryMin)
		}
		fmt.Fprintf(&b, "   Fit score: %.0f/100\n", rec.FitScore)
		if opp.URL != "" {
			fmt.Fprintf(&b, "   %s\n", opp.URL)
		}
	}

	b.WriteString("\nLog in to ElevAIte to manage these opportunities. Good luck with your applications!\n")
	return b.String()
}

// RecommendationsSubject builds the subject line for the daily digest email.
func RecommendationsSubject(count int) string {
	return fmt.Sprintf("Daily Recommendations - %d New Opportunities", count)
}
