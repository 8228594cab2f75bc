package db

import "strings"

// DefaultQueryLimit is applied when a caller omits the limit or passes
// a non-positive one.
const DefaultQueryLimit = 10

// Filters is the structured predicate spec for QueryFiltered. Every
// field is independently optional; present predicates are AND-combined,
// absent ones impose no constraint. All values reach SQLite as bound
// parameters, never by string interpolation.
type Filters struct {
	TextContains   *string // case-sensitive substring on text
	TextContainsI  *string // case-insensitive substring on text
	TitleContains  *string // case-sensitive substring on title
	TitleContainsI *string // case-insensitive substring on title

	PackageName *string
	Category    *string
	Style       *string
	ChannelID   *string

	IsOngoing      *bool
	IsGroupSummary *bool

	AppNames []string // set membership on app_name

	After  *int64 // post_time > After
	Before *int64 // post_time < Before
}

// escapeLike escapes LIKE wildcards in user-supplied substrings so a
// literal % or _ matches itself.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// build compiles the spec plus the pagination cursor into a WHERE
// clause and its ordered argument list. Returns "" when nothing
// constrains the query.
func (f Filters) build(cursor *int64) (string, []any) {
	var clauses []string
	var args []any

	if f.TextContains != nil {
		// GLOB is case-sensitive, unlike LIKE's default for ASCII.
		clauses = append(clauses, `text GLOB '*' || ? || '*'`)
		args = append(args, globEscape(*f.TextContains))
	}
	if f.TextContainsI != nil {
		clauses = append(clauses, `text LIKE '%' || ? || '%' ESCAPE '\'`)
		args = append(args, escapeLike(*f.TextContainsI))
	}
	if f.TitleContains != nil {
		clauses = append(clauses, `title GLOB '*' || ? || '*'`)
		args = append(args, globEscape(*f.TitleContains))
	}
	if f.TitleContainsI != nil {
		clauses = append(clauses, `title LIKE '%' || ? || '%' ESCAPE '\'`)
		args = append(args, escapeLike(*f.TitleContainsI))
	}

	if f.PackageName != nil {
		clauses = append(clauses, `package_name = ?`)
		args = append(args, *f.PackageName)
	}
	if f.Category != nil {
		clauses = append(clauses, `category = ?`)
		args = append(args, *f.Category)
	}
	if f.Style != nil {
		clauses = append(clauses, `style = ?`)
		args = append(args, *f.Style)
	}
	if f.ChannelID != nil {
		clauses = append(clauses, `channel_id = ?`)
		args = append(args, *f.ChannelID)
	}

	if f.IsOngoing != nil {
		clauses = append(clauses, `is_ongoing = ?`)
		args = append(args, *f.IsOngoing)
	}
	if f.IsGroupSummary != nil {
		clauses = append(clauses, `is_group_summary = ?`)
		args = append(args, *f.IsGroupSummary)
	}

	if len(f.AppNames) > 0 {
		placeholders := strings.Repeat("?, ", len(f.AppNames))
		clauses = append(clauses, `app_name IN (`+placeholders[:len(placeholders)-2]+`)`)
		for _, name := range f.AppNames {
			args = append(args, name)
		}
	}

	if f.After != nil {
		clauses = append(clauses, `post_time > ?`)
		args = append(args, *f.After)
	}
	if f.Before != nil {
		clauses = append(clauses, `post_time < ?`)
		args = append(args, *f.Before)
	}

	if cursor != nil {
		clauses = append(clauses, `post_time < ?`)
		args = append(args, *cursor)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// globEscape escapes GLOB metacharacters in user-supplied substrings.
func globEscape(s string) string {
	s = strings.ReplaceAll(s, `[`, `[[]`)
	s = strings.ReplaceAll(s, `*`, `[*]`)
	s = strings.ReplaceAll(s, `?`, `[?]`)
	return s
}
