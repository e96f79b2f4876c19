package sparkify

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Names of the table locations under the output base.
const (
	SongTableName     = "song_table"
	ArtistTableName   = "artist_table"
	UserTableName     = "user_table"
	TimeTableName     = "time_table"
	SongPlayTableName = "songplay_table"
)

// Table is a complete table ready to be written, split into partitions.
type Table struct {
	Name string
	// Proto is a pointer to a zero row; it describes the columns.
	Proto       interface{}
	PartitionBy []string
	Partitions  []*Partition
}

// Partition is the set of rows sharing one value for each partition column.
// An unpartitioned table has a single Partition with no Values.
type Partition struct {
	Values []string
	Rows   []interface{}
}

// Len returns the number of rows in the table.
func (t *Table) Len() int {
	n := 0
	for _, p := range t.Partitions {
		n += len(p.Rows)
	}
	return n
}

// Path returns the Hive style relative directory of p within t, such as
// "year=2018/month=11". It is empty for an unpartitioned table.
func (t *Table) Path(p *Partition) string {
	parts := make([]string, len(t.PartitionBy))
	for i, col := range t.PartitionBy {
		parts[i] = col + "=" + p.Values[i]
	}
	return strings.Join(parts, "/")
}

// Sink writes tables under an output base location. WriteTable replaces
// anything previously stored for the table, and either the whole table is
// written or the previous contents are left in place.
type Sink interface {
	WriteTable(ctx context.Context, base string, t *Table) error
}

func unpartitioned(name string, proto interface{}, rows []interface{}) *Table {
	return &Table{
		Name:       name,
		Proto:      proto,
		Partitions: []*Partition{{Rows: rows}},
	}
}

// byYearMonth splits rows into year/month partitions, keeping the order of
// rows within each partition. Partitions are ordered by year, then month.
func byYearMonth(name string, proto interface{}, n int, row func(i int) (interface{}, int32, int32)) *Table {
	type ym struct{ year, month int32 }
	parts := make(map[ym]*Partition)
	order := make([]ym, 0)
	for i := 0; i < n; i++ {
		r, year, month := row(i)
		k := ym{year, month}
		p, ok := parts[k]
		if !ok {
			p = &Partition{Values: []string{fmt.Sprint(year), fmt.Sprint(month)}}
			parts[k] = p
			order = append(order, k)
		}
		p.Rows = append(p.Rows, r)
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].year != order[j].year {
			return order[i].year < order[j].year
		}
		return order[i].month < order[j].month
	})
	t := &Table{
		Name:        name,
		Proto:       proto,
		PartitionBy: []string{"year", "month"},
		Partitions:  make([]*Partition, len(order)),
	}
	for i, k := range order {
		t.Partitions[i] = parts[k]
	}
	return t
}

// SongTable builds the unpartitioned songs table.
func SongTable(songs []Song) *Table {
	rows := make([]interface{}, len(songs))
	for i := range songs {
		rows[i] = songs[i]
	}
	return unpartitioned(SongTableName, new(Song), rows)
}

// ArtistTable builds the unpartitioned artists table.
func ArtistTable(artists []Artist) *Table {
	rows := make([]interface{}, len(artists))
	for i := range artists {
		rows[i] = artists[i]
	}
	return unpartitioned(ArtistTableName, new(Artist), rows)
}

// UserTable builds the unpartitioned users table.
func UserTable(users []User) *Table {
	rows := make([]interface{}, len(users))
	for i := range users {
		rows[i] = users[i]
	}
	return unpartitioned(UserTableName, new(User), rows)
}

// TimeTable builds the time table partitioned by year and month.
func TimeTable(times []Time) *Table {
	return byYearMonth(TimeTableName, new(Time), len(times), func(i int) (interface{}, int32, int32) {
		return times[i], times[i].Year, times[i].Month
	})
}

// SongPlayTable builds the songplays table partitioned by the year and month
// of each play's start time.
func SongPlayTable(plays []SongPlay) *Table {
	return byYearMonth(SongPlayTableName, new(SongPlay), len(plays), func(i int) (interface{}, int32, int32) {
		return plays[i], plays[i].Year, plays[i].Month
	})
}
