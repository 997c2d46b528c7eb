package models

// ArchivedFile is one preview copied to the archive store
type ArchivedFile struct {
	Source   string `json:"source"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

// ArchiveReport summarizes a preview archive run; per-file failures are listed in Errors
type ArchiveReport struct {
	Store    string         `json:"store"`
	Total    int            `json:"total"`
	Uploaded int            `json:"uploaded"`
	Skipped  int            `json:"skipped"`
	Files    []ArchivedFile `json:"files"`
	Errors   []string       `json:"errors"`
}
