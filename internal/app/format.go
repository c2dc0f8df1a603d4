package app

import "strings"

var keywordsNewlineBefore = []string{
	"INSERT INTO", "DELETE FROM", "CREATE TABLE", "ALTER TABLE",
	"DROP TABLE", "INNER JOIN", "LEFT JOIN", "RIGHT JOIN", "OUTER JOIN",
	"CROSS JOIN", "ORDER BY", "GROUP BY", "UNION ALL", "SELECT", "FROM",
	"WHERE", "HAVING", "JOIN", "UNION", "VALUES", "UPDATE", "SET", "AND",
	"OR", "ON",
}

var keywordsNewlineAfter = map[string]bool{"SELECT": true, "FROM": true}

// FormatSQL reformats a query with keyword line breaks and indentation.
// It is whitespace-normalizing and keyword-upcasing, not a parser.
func FormatSQL(sql string) string {
	sql = strings.Join(strings.Fields(sql), " ")
	upper := strings.ToUpper(sql)

	var out strings.Builder
	indent := 0
	i := 0

	for i < len(sql) {
		keyword := matchKeyword(upper, i)

		switch {
		case keyword != "":
			if out.Len() > 0 && !strings.HasSuffix(out.String(), "\n") {
				out.WriteByte('\n')
			}
			switch keyword {
			case "AND", "OR", "ON":
				out.WriteString(strings.Repeat("    ", indent+1))
			default:
				out.WriteString(strings.Repeat("    ", indent))
			}
			out.WriteString(keyword)
			i += len(keyword)

			if keywordsNewlineAfter[keyword] {
				out.WriteByte('\n')
				out.WriteString(strings.Repeat("    ", indent+1))
			} else {
				out.WriteByte(' ')
			}
			for i < len(sql) && sql[i] == ' ' {
				i++
			}

		case sql[i] == '(':
			out.WriteByte('(')
			indent++
			i++

		case sql[i] == ')':
			out.WriteByte(')')
			if indent > 0 {
				indent--
			}
			i++

		case sql[i] == ',':
			out.WriteString(",\n")
			out.WriteString(strings.Repeat("    ", indent+1))
			i++
			for i < len(sql) && sql[i] == ' ' {
				i++
			}

		default:
			out.WriteByte(sql[i])
			i++
		}
	}

	lines := strings.Split(out.String(), "\n")
	for j, line := range lines {
		lines[j] = strings.TrimRight(line, " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// matchKeyword returns the formatting keyword starting at position i, or
// "". Longer keywords are listed first so compound forms win ("ORDER BY"
// before "OR").
func matchKeyword(upper string, i int) string {
	for _, keyword := range keywordsNewlineBefore {
		if !strings.HasPrefix(upper[i:], keyword) {
			continue
		}
		end := i + len(keyword)
		if end < len(upper) && isAlphanumeric(upper[end]) {
			continue
		}
		// Word boundary on the left as well.
		if i > 0 && isAlphanumeric(upper[i-1]) {
			continue
		}
		return keyword
	}
	return ""
}

func isAlphanumeric(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_'
}
