package sheetsync

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeText lowercases, strips diacritics and trims the input. It is the
// shared normalization for both status classification and header matching, so
// "Confirmé", "CONFIRME" and " confirme " all compare equal.
func NormalizeText(s string) string {
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(stripper, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// statusSynonyms is the closed exact-match dictionary, keyed by normalized
// text. French and English variants observed in merchant sheets.
var statusSynonyms = map[string]OrderStatus{
	"en attente":  StatusPending,
	"attente":     StatusPending,
	"a traiter":   StatusPending,
	"non traite":  StatusPending,
	"nouveau":     StatusPending,
	"new":         StatusPending,
	"pending":     StatusPending,
	"en cours":    StatusPending,

	"confirme":  StatusConfirmed,
	"confirmee": StatusConfirmed,
	"confirmed": StatusConfirmed,
	"valide":    StatusConfirmed,
	"validee":   StatusConfirmed,
	"ok":        StatusConfirmed,

	"expedie":               StatusShipped,
	"expediee":              StatusShipped,
	"envoye":                StatusShipped,
	"envoyee":               StatusShipped,
	"shipped":               StatusShipped,
	"en livraison":          StatusShipped,
	"en cours de livraison": StatusShipped,
	"out for delivery":      StatusShipped,

	"livre":     StatusDelivered,
	"livree":    StatusDelivered,
	"delivered": StatusDelivered,
	"recu":      StatusDelivered,
	"recue":     StatusDelivered,
	"remis":     StatusDelivered,
	"termine":   StatusDelivered,
	"terminee":  StatusDelivered,
	"completed": StatusDelivered,
	"done":      StatusDelivered,

	"retourne":  StatusReturned,
	"retournee": StatusReturned,
	"retour":    StatusReturned,
	"returned":  StatusReturned,
	"return":    StatusReturned,

	"annule":     StatusCancelled,
	"annulee":    StatusCancelled,
	"annulation": StatusCancelled,
	"cancelled":  StatusCancelled,
	"canceled":   StatusCancelled,

	"injoignable":   StatusUnreachable,
	"ne repond pas": StatusUnreachable,
	"pas de reponse": StatusUnreachable,
	"sans reponse":  StatusUnreachable,
	"no answer":     StatusUnreachable,
	"unreachable":   StatusUnreachable,

	"appele":    StatusCalled,
	"appelee":   StatusCalled,
	"called":    StatusCalled,
	"contacte":  StatusCalled,
	"contactee": StatusCalled,

	"reporte":    StatusPostponed,
	"reportee":   StatusPostponed,
	"postponed":  StatusPostponed,
	"rappeler":   StatusPostponed,
	"a rappeler": StatusPostponed,
	"call back":  StatusPostponed,
	"differe":    StatusPostponed,
}

// statusKeywordGroup is one bucket of the loose substring fallback
type statusKeywordGroup struct {
	status   OrderStatus
	keywords []string
}

// statusKeywordGroups is scanned in order; the first bucket containing a
// matching keyword wins. Cancellation and returns come before shipping and
// delivery so "retour apres livraison" lands on returned, and shipped comes
// before delivered so "en cours de livraison" is not read as delivered.
var statusKeywordGroups = []statusKeywordGroup{
	{StatusCancelled, []string{"annul", "cancel"}},
	{StatusReturned, []string{"retour", "return", "renvoy"}},
	{StatusUnreachable, []string{"injoign", "no answer", "repond pas", "sans reponse", "unreachable"}},
	{StatusPostponed, []string{"report", "rappel", "postpon", "call back", "differ"}},
	{StatusConfirmed, []string{"confirm", "valid"}},
	{StatusShipped, []string{"exped", "envoy", "ship", "transit"}},
	{StatusDelivered, []string{"livr", "recu", "remis", "termin", "deliver", "complet"}},
	{StatusCalled, []string{"appel", "call", "contact"}},
	{StatusPending, []string{"attente", "pend", "nouveau", "traiter"}},
}

// StatusClassifier maps free-text status values onto canonical statuses and
// keeps the unrecognized inputs observable. One instance per run; not safe
// for concurrent use.
type StatusClassifier struct {
	unrecognized map[string]int
}

// NewStatusClassifier creates a classifier with empty diagnostics
func NewStatusClassifier() *StatusClassifier {
	return &StatusClassifier{unrecognized: make(map[string]int)}
}

// Classify maps raw status text to a canonical status. Empty input and
// unrecognized text both degrade to pending; unrecognized text is tallied
// but never blocks the run.
func (c *StatusClassifier) Classify(raw string) OrderStatus {
	normalized := NormalizeText(raw)
	if normalized == "" {
		return StatusPending
	}

	if status, ok := statusSynonyms[normalized]; ok {
		return status
	}

	for _, group := range statusKeywordGroups {
		for _, kw := range group.keywords {
			if strings.Contains(normalized, kw) {
				return group.status
			}
		}
	}

	c.unrecognized[normalized]++
	return StatusPending
}

// UnrecognizedCount returns the total number of unrecognized classifications
func (c *StatusClassifier) UnrecognizedCount() int {
	total := 0
	for _, n := range c.unrecognized {
		total += n
	}
	return total
}

// UnrecognizedValues returns the distinct unrecognized inputs, sorted
func (c *StatusClassifier) UnrecognizedValues() []string {
	values := make([]string, 0, len(c.unrecognized))
	for v := range c.unrecognized {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
