package models

// CSVHeader is the fixed header row of the output table
var CSVHeader = []string{
	"Name", "Position", "Nationality", "Age", "DOB",
	"Jersey", "Height", "Weight", "Team", "Profile URL",
}

// PlayerRecord is one output row. Every field is free text and may be empty.
type PlayerRecord struct {
	Name         string
	Position     string
	Nationality  string
	Age          string
	DateOfBirth  string
	JerseyNumber string
	Height       string
	Weight       string
	Team         string
	ProfileURL   string
}

// Row returns the record in CSVHeader column order
func (r PlayerRecord) Row() []string {
	return []string{
		r.Name, r.Position, r.Nationality, r.Age, r.DateOfBirth,
		r.JerseyNumber, r.Height, r.Weight, r.Team, r.ProfileURL,
	}
}

// ListingRow holds the fields read from one search-results row
type ListingRow struct {
	Name        string
	Position    string
	ProfileURL  string
	DateOfBirth string
}

// PartialRecord holds the fields read from a profile page
type PartialRecord struct {
	Position     string
	Nationality  string
	Age          string
	DateOfBirth  string
	JerseyNumber string
	Height       string
	Weight       string
	Team         string

	// Missing lists the fields that could not be extracted
	Missing []string
}

// Merge combines listing and profile data into a record.
// The profile position wins when non-empty. Date of birth is a profile
// field only, so a failed profile leaves it empty.
func Merge(row ListingRow, detail PartialRecord) PlayerRecord {
	rec := PlayerRecord{
		Name:         row.Name,
		Position:     row.Position,
		Nationality:  detail.Nationality,
		Age:          detail.Age,
		DateOfBirth:  detail.DateOfBirth,
		JerseyNumber: detail.JerseyNumber,
		Height:       detail.Height,
		Weight:       detail.Weight,
		Team:         detail.Team,
		ProfileURL:   row.ProfileURL,
	}
	if detail.Position != "" {
		rec.Position = detail.Position
	}
	return rec
}
