package service

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jask/finsync/internal/ledger"
)

// CategoryRule maps any of its keywords to Category.
type CategoryRule struct {
	Category ledger.Category `yaml:"category"`
	Keywords []string        `yaml:"keywords"`
}

// Categorizer is an ordered decision list: the first rule with a keyword
// contained in "{description} {counterparty}" wins. Order is significant.
type Categorizer struct {
	rules []CategoryRule
}

// NewCategorizer creates a categorizer with the built-in rules.
func NewCategorizer() *Categorizer {
	return &Categorizer{rules: DefaultRules()}
}

// NewCategorizerWithRules creates a categorizer from rules, evaluated in the given order.
func NewCategorizerWithRules(rules []CategoryRule) (*Categorizer, error) {
	out := make([]CategoryRule, 0, len(rules))
	for i, r := range rules {
		if !r.Category.Valid() {
			return nil, fmt.Errorf("rule %d: unknown category %q", i, r.Category)
		}
		kws := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				kws = append(kws, kw)
			}
		}
		out = append(out, CategoryRule{Category: r.Category, Keywords: kws})
	}
	return &Categorizer{rules: out}, nil
}

type rulesFile struct {
	Rules []CategoryRule `yaml:"rules"`
}

// LoadCategorizer reads an ordered rule list from a YAML file of the form
//
//	rules:
//	  - category: Groceries
//	    keywords: [rewe, edeka]
func LoadCategorizer(path string) (*Categorizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var rf rulesFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	if len(rf.Rules) == 0 {
		return nil, fmt.Errorf("rules file %s: no rules", path)
	}
	return NewCategorizerWithRules(rf.Rules)
}

// Classify returns the category of the first matching rule, or Other.
func (c *Categorizer) Classify(description, counterparty string) ledger.Category {
	text := strings.ToLower(description + " " + counterparty)
	for _, r := range c.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(text, kw) {
				return r.Category
			}
		}
	}
	return ledger.CategoryOther
}

// ClassifyTransaction classifies tx. Credits that match no rule are Income.
func (c *Categorizer) ClassifyTransaction(tx ledger.Transaction) ledger.Category {
	cat := c.Classify(tx.Description, tx.Counterparty)
	if cat == ledger.CategoryOther && !tx.IsDebit() {
		return ledger.CategoryIncome
	}
	return cat
}

// Rules returns a copy of the rule list in evaluation order.
func (c *Categorizer) Rules() []CategoryRule {
	out := make([]CategoryRule, len(c.rules))
	for i, r := range c.rules {
		out[i] = CategoryRule{Category: r.Category, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}

// DefaultRules is the built-in rule list. Dining precedes Transport so that
// "uber eats" is a meal, and Subscriptions precedes Shopping so that
// "amazon prime" is a subscription.
func DefaultRules() []CategoryRule {
	return []CategoryRule{
		{Category: ledger.CategoryRent, Keywords: []string{
			"miete", "kaltmiete", "warmmiete", "rent payment", "hausverwaltung", "wohnungsbau", "vermietung",
		}},
		{Category: ledger.CategoryGroceries, Keywords: []string{
			"rewe", "edeka", "aldi", "lidl", "netto marken", "netto filiale", "penny", "kaufland", "denns", "alnatura",
			"supermarkt", "woolworths", "coles", "grocery",
		}},
		{Category: ledger.CategoryDining, Keywords: []string{
			"restaurant", "lieferando", "uber eats", "wolt", "mcdonald", "burger king",
			"starbucks", "cafe", "pizza", "bistro", "imbiss",
		}},
		{Category: ledger.CategoryTransport, Keywords: []string{
			"shell", "aral", "esso station", "esso tankstelle", "tankstelle", "deutsche bahn", "db vertrieb", "bvg", "mvg",
			"uber trip", "uber bv", "uber.com", "taxi", "flixbus", "parken", "parking", "sixt", "miles mobility",
		}},
		{Category: ledger.CategorySubscriptions, Keywords: []string{
			"netflix", "spotify", "disney plus", "amazon prime", "apple.com", "youtube premium",
			"dazn", "audible", "abonnement", "monatsabo",
		}},
		{Category: ledger.CategoryBills, Keywords: []string{
			"strom", "stadtwerke", "vattenfall", "telekom", "vodafone", "telefonica",
			"versicherung", "insurance", "rundfunk", "internet", "gebuehr",
		}},
		{Category: ledger.CategoryHealthcare, Keywords: []string{
			"apotheke", "pharmacy", "arzt", "praxis", "klinik", "zahnarzt", "physio", "krankenkasse",
		}},
		{Category: ledger.CategoryEntertainment, Keywords: []string{
			"kino", "cinema", "eventim", "steam", "playstation", "nintendo", "theater", "konzert",
		}},
		{Category: ledger.CategoryShopping, Keywords: []string{
			"amazon", "zalando", "otto.de", "otto gmbh", "ikea", "mediamarkt", "saturn", "h&m", "ebay", "dm-drogerie",
		}},
		{Category: ledger.CategoryIncome, Keywords: []string{
			"gehalt", "salary", "lohn", "payroll", "rentenzahlung", "dividende", "erstattung",
		}},
	}
}
