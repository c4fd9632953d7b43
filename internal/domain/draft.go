package domain

// Draft holds machine-generated candidate translations per language
type Draft map[Language]string

// Missing returns the draft languages without text, in draft language order
func (d Draft) Missing() []Language {
	var missing []Language
	for _, lang := range DraftLanguages {
		if d[lang] == "" {
			missing = append(missing, lang)
		}
	}
	return missing
}

// Clone returns an independent copy
func (d Draft) Clone() Draft {
	if d == nil {
		return nil
	}
	out := make(Draft, len(d))
	for lang, text := range d {
		out[lang] = text
	}
	return out
}
