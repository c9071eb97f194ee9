package sheetsync

import "strings"

// Field is a canonical column the sync pipeline knows how to use
type Field string

const (
	FieldOrderID     Field = "orderId"
	FieldDate        Field = "date"
	FieldClientPhone Field = "clientPhone"
	FieldClientName  Field = "clientName"
	FieldCity        Field = "city"
	FieldAddress     Field = "address"
	FieldProduct     Field = "product"
	FieldQuantity    Field = "quantity"
	FieldPrice       Field = "price"
	FieldStatus      Field = "status"
	FieldNotes       Field = "notes"
)

// ColumnMapping maps canonical fields to column indexes. A field absent from
// the map was not found in the header row; callers must not assume every
// field is present.
type ColumnMapping map[Field]int

// Column returns the column index for a field and whether it is mapped
func (m ColumnMapping) Column(f Field) (int, bool) {
	idx, ok := m[f]
	return idx, ok
}

// fieldKeywords holds the two keyword tiers for one canonical field.
// Compound phrases are multi-word and high-specificity; simple tokens are
// single words matched against whole header words only, so "prix" cannot
// steal a "Prix Unitaire" column from a compound match.
type fieldKeywords struct {
	field    Field
	compound []string
	simple   []string
}

// fieldKeywordTable is scanned in order during both passes. All keywords are
// stored pre-normalized (lowercase, no diacritics).
var fieldKeywordTable = []fieldKeywords{
	{
		field:    FieldOrderID,
		compound: []string{"order id", "order number", "numero de commande", "numero commande", "ref commande", "id commande"},
		simple:   []string{"commande", "order", "reference", "ref", "id"},
	},
	{
		field:    FieldDate,
		compound: []string{"date de commande", "date commande", "order date"},
		simple:   []string{"date", "jour"},
	},
	{
		field:    FieldClientPhone,
		compound: []string{"numero de telephone", "telephone client", "tel client", "phone number", "client phone"},
		simple:   []string{"telephone", "tel", "phone", "gsm", "mobile", "whatsapp"},
	},
	{
		field:    FieldClientName,
		compound: []string{"nom client", "nom du client", "client name", "full name", "nom complet"},
		simple:   []string{"client", "nom", "name", "destinataire"},
	},
	{
		field:    FieldCity,
		compound: []string{"ville de livraison", "delivery city"},
		simple:   []string{"ville", "city"},
	},
	{
		field:    FieldAddress,
		compound: []string{"adresse de livraison", "adresse complete", "delivery address"},
		simple:   []string{"adresse", "address", "quartier"},
	},
	{
		field:    FieldProduct,
		compound: []string{"nom produit", "nom du produit", "product name", "designation produit"},
		simple:   []string{"produit", "product", "article", "designation", "sku"},
	},
	{
		field:    FieldQuantity,
		compound: []string{"quantite commandee", "order quantity"},
		simple:   []string{"quantite", "qte", "quantity", "qty", "nombre"},
	},
	{
		field:    FieldPrice,
		compound: []string{"prix unitaire", "prix total", "unit price", "total price", "montant total"},
		simple:   []string{"prix", "price", "montant", "total", "tarif"},
	},
	{
		field:    FieldStatus,
		compound: []string{"statut livraison", "statut commande", "etat commande", "delivery status", "order status"},
		simple:   []string{"statut", "status", "etat"},
	},
	{
		field:    FieldNotes,
		compound: []string{"note de commande", "order notes"},
		simple:   []string{"note", "notes", "remarque", "commentaire", "comment", "observation"},
	},
}

// statusFallbackKeywords rescues the status column when both passes missed
// it. Status is load-bearing for everything downstream, so it gets a looser
// substring scan over the still-unclaimed headers.
var statusFallbackKeywords = []string{"statut", "status", "etat", "livraison", "delivery"}

// InferSchema maps header strings to canonical fields. Pass 1 assigns
// compound phrases, pass 2 assigns simple tokens to still-unclaimed columns;
// within each pass the first field/column match wins and a column is claimed
// by at most one field.
func InferSchema(headers []string) ColumnMapping {
	normalized := make([]string, len(headers))
	words := make([][]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeText(h)
		words[i] = strings.FieldsFunc(normalized[i], func(r rune) bool {
			return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
		})
	}

	mapping := make(ColumnMapping)
	claimed := make(map[int]bool)

	// Pass 1: compound phrases (substring containment)
	for _, fk := range fieldKeywordTable {
		if _, done := mapping[fk.field]; done {
			continue
		}
	compoundScan:
		for col, header := range normalized {
			if claimed[col] || header == "" {
				continue
			}
			for _, phrase := range fk.compound {
				if strings.Contains(header, phrase) {
					mapping[fk.field] = col
					claimed[col] = true
					break compoundScan
				}
			}
		}
	}

	// Pass 2: simple tokens, matched against whole header words
	for _, fk := range fieldKeywordTable {
		if _, done := mapping[fk.field]; done {
			continue
		}
	simpleScan:
		for col := range normalized {
			if claimed[col] || normalized[col] == "" {
				continue
			}
			for _, token := range fk.simple {
				if containsWord(words[col], token) {
					mapping[fk.field] = col
					claimed[col] = true
					break simpleScan
				}
			}
		}
	}

	// Status fallback: loose substring scan over unclaimed headers
	if _, ok := mapping[FieldStatus]; !ok {
	fallbackScan:
		for col, header := range normalized {
			if claimed[col] || header == "" {
				continue
			}
			for _, kw := range statusFallbackKeywords {
				if strings.Contains(header, kw) {
					mapping[FieldStatus] = col
					claimed[col] = true
					break fallbackScan
				}
			}
		}
	}

	return mapping
}

// containsWord reports whether token equals one of the header's words
func containsWord(headerWords []string, token string) bool {
	for _, w := range headerWords {
		if w == token {
			return true
		}
	}
	return false
}
