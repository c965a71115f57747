package flow

import (
	"fmt"
	"strings"

	"github.com/leadops/leadbot/internal/database"
)

// formatLead renders a full lead card for check results and edit summaries.
func formatLead(lead *database.Lead) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Lead #%d: %s\n", lead.ID, lead.FullName)
	fmt.Fprintf(&b, "Manager: %s", lead.ManagerName)
	if lead.ManagerTag != "" {
		fmt.Fprintf(&b, " (@%s)", lead.ManagerTag)
	}
	b.WriteString("\n")

	appendField(&b, "Phone", lead.Phone.String)
	appendField(&b, "Email", lead.Email.String)
	appendField(&b, "Facebook", lead.FacebookLink.String)
	appendField(&b, "Telegram", lead.TelegramUser.String)
	appendField(&b, "Telegram ID", lead.TelegramID.String)
	appendField(&b, "Country", lead.Country.String)
	appendField(&b, "Photo", lead.PhotoURL.String)

	fmt.Fprintf(&b, "Added: %s", lead.CreatedAt.Format("2006-01-02"))
	return b.String()
}

// formatLeadShort renders the one-line form used in conflict notices and
// name-search result lists.
func formatLeadShort(lead *database.Lead) string {
	return fmt.Sprintf("#%d %s (manager: %s)", lead.ID, lead.FullName, lead.ManagerName)
}

func appendField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, value)
}
