package result

import (
	"errors"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrNoStatement is returned when a response contains neither an invoice
// table, a balance, nor a not-found message.
var ErrNoStatement = errors.New("response does not contain a policy statement")

// Invoice is one row of the statement table.
type Invoice struct {
	BillDate   string `json:"bill_date"`
	DueDate    string `json:"due_date"`
	CancelDate string `json:"cancel_date"`
	AmountDue  string `json:"amount_due"`
}

// Statement is the structured form of a lookup response.
type Statement struct {
	PolicyID string    `json:"policy_id,omitempty"`
	Balance  string    `json:"balance,omitempty"`
	Invoices []Invoice `json:"invoices"`
	NotFound bool      `json:"not_found,omitempty"`
	Message  string    `json:"message,omitempty"`
}

var (
	notFoundPattern = regexp.MustCompile(`(?i)no policy found with policy id:?\s*(\S*)`)
	balancePattern  = regexp.MustCompile(`(?i)balance\s*(?:due)?\s*:?\s*\$?\s*(-?[0-9][0-9,]*(?:\.[0-9]+)?)`)
	policyPattern   = regexp.MustCompile(`(?i)policy(?:\s*id)?\s*:?\s*#?\s*([0-9]+)`)
)

// invoiceColumns maps normalised header text to a setter on Invoice.
var invoiceColumns = map[string]func(*Invoice, string){
	"billdate":   func(i *Invoice, v string) { i.BillDate = v },
	"duedate":    func(i *Invoice, v string) { i.DueDate = v },
	"canceldate": func(i *Invoice, v string) { i.CancelDate = v },
	"amountdue":  func(i *Invoice, v string) { i.AmountDue = v },
}

// ParseStatement extracts the policy id, balance and invoices from the
// accounting service's result page, or detects its not-found page.
func ParseStatement(raw string) (Statement, error) {
	doc, err := html.Parse(strings.NewReader(Sanitize(raw)))
	if err != nil {
		return Statement{}, err
	}

	st := Statement{Invoices: []Invoice{}}
	text := collapse(textContent(doc))

	if m := notFoundPattern.FindStringSubmatch(text); m != nil {
		st.NotFound = true
		st.PolicyID = m[1]
		st.Message = strings.TrimSpace(m[0])
		return st, nil
	}

	foundTable := false
	for _, table := range findAll(doc, atom.Table) {
		invoices, ok := parseInvoiceTable(table)
		if ok {
			st.Invoices = append(st.Invoices, invoices...)
			foundTable = true
		}
	}

	if m := balancePattern.FindStringSubmatch(text); m != nil {
		st.Balance = strings.ReplaceAll(m[1], ",", "")
	}
	if m := policyPattern.FindStringSubmatch(text); m != nil {
		st.PolicyID = m[1]
	}

	if !foundTable && st.Balance == "" {
		return st, ErrNoStatement
	}
	return st, nil
}

func parseInvoiceTable(table *html.Node) ([]Invoice, bool) {
	rows := tableRows(table, func(td *html.Node) string {
		return collapse(textContent(td))
	})
	if len(rows) == 0 {
		return nil, false
	}

	setters := make([]func(*Invoice, string), len(rows[0]))
	matched := 0
	for i, header := range rows[0] {
		if set, ok := invoiceColumns[normalizeHeader(header)]; ok {
			setters[i] = set
			matched++
		}
	}
	if matched == 0 {
		return nil, false
	}

	invoices := make([]Invoice, 0, len(rows)-1)
	for _, row := range rows[1:] {
		var inv Invoice
		for i, cell := range row {
			if i < len(setters) && setters[i] != nil {
				setters[i](&inv, cell)
			}
		}
		invoices = append(invoices, inv)
	}
	return invoices, true
}

func normalizeHeader(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func findAll(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == a {
			out = append(out, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return out
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
			return
		}
		if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return sb.String()
}
