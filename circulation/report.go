package circulation

import (
	"slices"
	"strconv"
	"strings"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// GenerateReport renders loans grouped by student name in lexicographic order.
// Within a group loans are ordered by due date, ties by loan id. Every group ends with a blank line.
func GenerateReport(loans []lending.Loan) string {
	groups := make(map[string][]lending.Loan)
	for _, loan := range loans {
		groups[loan.Student.Name] = append(groups[loan.Student.Name], loan)
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}

	slices.Sort(names)

	var sb strings.Builder

	for _, name := range names {
		group := groups[name]
		slices.SortFunc(group, func(a, b lending.Loan) int {
			if c := a.DueDate.Compare(b.DueDate); c != 0 {
				return c
			}

			return compareIDs(a.ID, b.ID)
		})

		sb.WriteString("Student: " + name + "\n")

		for _, loan := range group {
			returned := "No"
			if loan.Returned() {
				returned = "Yes"
			}

			sb.WriteString("  Loan ID: " + strconv.FormatInt(loan.ID, 10) +
				", Due: " + lending.FormatDate(loan.DueDate) +
				", Returned: " + returned + "\n")
		}

		sb.WriteString("\n")
	}

	return sb.String()
}
