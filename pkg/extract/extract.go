package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"hockeyscraper/pkg/config"
	"hockeyscraper/pkg/errors"
	"hockeyscraper/pkg/models"
)

// minListingCells is the number of cells a results row needs to be usable
const minListingCells = 5

// Field names reported in PartialRecord.Missing
const (
	FieldJersey      = "jersey"
	FieldTeam        = "team"
	FieldNationality = "nationality"
	FieldAge         = "age"
	FieldPosition    = "position"
	FieldHeight      = "height"
	FieldWeight      = "weight"
	FieldDateOfBirth = "date_of_birth"
)

// ListingParser turns a search-results document into listing rows
type ListingParser interface {
	// ParseListing returns the usable rows and one error per skipped row
	ParseListing(doc *goquery.Document) ([]models.ListingRow, []error)
}

// FieldExtractor reads profile fields from a player page
type FieldExtractor interface {
	// ExtractFields never fails as a whole; absent fields are left empty
	ExtractFields(doc *goquery.Document) models.PartialRecord
}

// Strategy combines both halves of a site's markup knowledge
type Strategy interface {
	ListingParser
	FieldExtractor
}

// EliteProspects reads the eliteprospects.com listing and profile markup
type EliteProspects struct {
	base *url.URL
	sel  config.ExtractConfig
}

// NewEliteProspects creates the strategy. Relative profile links resolve against baseURL.
func NewEliteProspects(baseURL string, sel config.ExtractConfig) (*EliteProspects, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	return &EliteProspects{base: base, sel: sel}, nil
}

// Document parses raw page HTML
func Document(rawHTML string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// ParseListing reads name, listed position, profile link and listed date of birth per row
func (e *EliteProspects) ParseListing(doc *goquery.Document) ([]models.ListingRow, []error) {
	var (
		rows []models.ListingRow
		errs []error
	)

	doc.Find(e.sel.ListingRows).Each(func(i int, tr *goquery.Selection) {
		row, err := e.parseRow(tr)
		if err != nil {
			errs = append(errs, errors.New(errors.ErrorTypeRowParse, fmt.Sprintf("parse row %d", i+1), "", err))
			return
		}
		rows = append(rows, row)
	})

	return rows, errs
}

func (e *EliteProspects) parseRow(tr *goquery.Selection) (models.ListingRow, error) {
	cells := tr.Find("td")
	if cells.Length() < minListingCells {
		return models.ListingRow{}, fmt.Errorf("expected at least %d cells, got %d", minListingCells, cells.Length())
	}

	link := cells.Eq(0).Find("a").First()
	if link.Length() == 0 {
		return models.ListingRow{}, fmt.Errorf("name cell has no link")
	}

	href, _ := link.Attr("href")
	href = strings.TrimSpace(href)
	if href == "" {
		return models.ListingRow{}, fmt.Errorf("name link has no href")
	}

	profileURL, err := e.resolve(href)
	if err != nil {
		return models.ListingRow{}, err
	}

	return models.ListingRow{
		Name:        cleanText(link.Text()),
		Position:    cleanText(cells.Eq(1).Text()),
		ProfileURL:  profileURL,
		DateOfBirth: cleanText(cells.Eq(4).Text()),
	}, nil
}

func (e *EliteProspects) resolve(href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid profile link %q: %w", href, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	return e.base.ResolveReference(ref).String(), nil
}

// ExtractFields reads the header sub-block and the labeled facts list
func (e *EliteProspects) ExtractFields(doc *goquery.Document) models.PartialRecord {
	var rec models.PartialRecord

	subtitle := doc.Find(e.sel.ProfileSubtitle).First()
	if subtitle.Length() > 0 {
		text := cleanText(subtitle.Text())
		if strings.HasPrefix(text, "#") {
			rec.JerseyNumber = strings.TrimPrefix(strings.Fields(text)[0], "#")
		}
		rec.Team = cleanText(subtitle.Find("a").First().Text())
	}

	doc.Find(e.sel.FactsItems).Each(func(_ int, li *goquery.Selection) {
		label := li.Find(e.sel.FactLabel).First()
		if label.Length() == 0 {
			return
		}
		labelText := cleanText(label.Text())

		switch strings.ToLower(labelText) {
		case "nation":
			rec.Nationality = cleanText(li.Find("div a").First().Text())
		case "age":
			value := nextSiblingText(label)
			// Hidden behind a paywall
			if !strings.Contains(strings.ToLower(value), "premium") {
				rec.Age = value
			}
		case "position":
			rec.Position = nextSiblingText(label)
		case "height":
			rec.Height = withoutLabel(li, labelText)
		case "weight":
			rec.Weight = withoutLabel(li, labelText)
		case "date of birth":
			rec.DateOfBirth = cleanText(li.Find("a").First().Text())
		}
	})

	rec.Missing = missingFields(rec)
	return rec
}

func missingFields(rec models.PartialRecord) []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{FieldJersey, rec.JerseyNumber},
		{FieldTeam, rec.Team},
		{FieldNationality, rec.Nationality},
		{FieldAge, rec.Age},
		{FieldPosition, rec.Position},
		{FieldHeight, rec.Height},
		{FieldWeight, rec.Weight},
		{FieldDateOfBirth, rec.DateOfBirth},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// nextSiblingText returns the text of the DOM node right after sel,
// which may be a bare text node
func nextSiblingText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	return cleanText(nodeText(sel.Nodes[0].NextSibling))
}

func nodeText(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
	}
	return b.String()
}

func withoutLabel(li *goquery.Selection, label string) string {
	return cleanText(strings.ReplaceAll(cleanText(li.Text()), label, ""))
}

// cleanText trims and collapses runs of whitespace
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
