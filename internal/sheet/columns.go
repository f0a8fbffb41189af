// Package sheet reads the boss tracking worksheet: a Google Sheets tab with a
// header row and one row per boss. Headers are free-form and bilingual, so
// logical fields are resolved against an alias table instead of fixed
// positions.
package sheet

import (
	"regexp"
	"strings"
)

// Field names the logical columns the roster consumes.
type Field string

const (
	FieldLevel       Field = "level"
	FieldName        Field = "name"
	FieldLocation    Field = "location"
	FieldKillTime    Field = "kill_time"
	FieldNextSpawn   Field = "next_spawn"
	FieldDateKill    Field = "date_kill"
	FieldDateSpawn   Field = "date_spawn"
	FieldSpawnType   Field = "spawn_type"
	FieldSpawnDetail Field = "spawn_detail"
	FieldNote        Field = "note"
	FieldKillDT      Field = "kill_dt"
)

// fieldAliases maps each logical field to the header spellings seen in the
// wild (the canonical snake_case name first, then the Thai sheet headers).
// Matching is case-insensitive and whitespace-normalized.
var fieldAliases = map[Field][]string{
	FieldLevel:       {"level", "lvl", "เลเวล"},
	FieldName:        {"name", "ชื่อ"},
	FieldLocation:    {"location", "สถานที่", "จุดเกิด", "แผนที่"},
	FieldKillTime:    {"kill_time", "เวลาตาย"},
	FieldNextSpawn:   {"next_spawn", "เวลาถัดไป", "next"},
	FieldDateKill:    {"date_kill", "วันที่ตาย"},
	FieldDateSpawn:   {"date_spawn", "วันที่ถัดไป", "วันที่เกิดถัดไป"},
	FieldSpawnType:   {"spawn_type", "ประเภท"},
	FieldSpawnDetail: {"spawn_detail", "รายละเอียด"},
	FieldNote:        {"note", "หมายเหตุ"},
	FieldKillDT:      {"kill_dt", "kill datetime", "เวลาตายเต็ม"},
}

// requiredForSelection is the minimum header set a tab must resolve for the
// worksheet scan to pick it.
var requiredForSelection = []Field{FieldName, FieldSpawnType, FieldNextSpawn, FieldDateSpawn}

var spaceRE = regexp.MustCompile(`\s+`)

func normHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(spaceRE.ReplaceAllString(s, " ")))
}

// Columns maps logical fields to zero-based column indexes. Missing fields
// are absent from the map.
type Columns map[Field]int

// ResolveColumns matches the header row against the alias table.
func ResolveColumns(header []string) Columns {
	norm := make([]string, len(header))
	for i, h := range header {
		norm[i] = normHeader(h)
	}
	find := func(aliases []string) (int, bool) {
		for _, a := range aliases {
			a = normHeader(a)
			for i, h := range norm {
				if h == a {
					return i, true
				}
			}
		}
		return 0, false
	}

	cols := make(Columns, len(fieldAliases))
	for f, aliases := range fieldAliases {
		if idx, ok := find(aliases); ok {
			cols[f] = idx
		}
	}
	return cols
}

// Has reports whether all given fields resolved.
func (c Columns) Has(fields ...Field) bool {
	for _, f := range fields {
		if _, ok := c[f]; !ok {
			return false
		}
	}
	return true
}

// Cell returns the row's value for a logical field, or "" when the field is
// unresolved or the row is short.
func (c Columns) Cell(row []string, f Field) string {
	idx, ok := c[f]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}
