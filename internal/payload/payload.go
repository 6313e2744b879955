// Package payload holds the values the boundary carries: a zip-code table,
// small arithmetic helpers, and the song text.
package payload

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jdavidagudelo/handoff/domain/entities"
)

// ZipCodeCount is the number of keys Populate inserts.
const ZipCodeCount = 100000

// Song pieces.
const (
	SongPrefix = "💣 "
	SongToken  = "na "
	SongSuffix = "Batman! 💣"
)

// ZipCodeDatabase maps five-digit zip codes to a population count.
// It is not safe for concurrent use.
type ZipCodeDatabase struct {
	population map[string]uint32
}

// NewZipCodeDatabase returns an empty database.
func NewZipCodeDatabase() *ZipCodeDatabase {
	return &ZipCodeDatabase{population: make(map[string]uint32)}
}

// Populate inserts every zip code in [0, ZipCodeCount) mapped to its ordinal.
// Calling it again rewrites the same entries.
func (db *ZipCodeDatabase) Populate() {
	for i := uint32(0); i < ZipCodeCount; i++ {
		db.population[FormatZip(i)] = i
	}
}

// PopulationOf returns the count stored for zip, or 0 if it is absent.
func (db *ZipCodeDatabase) PopulationOf(zip string) uint32 {
	return db.population[zip]
}

// Len returns the number of stored zip codes.
func (db *ZipCodeDatabase) Len() int {
	return len(db.population)
}

// Drop releases the table.
func (db *ZipCodeDatabase) Drop() {
	db.population = nil
}

// FormatZip renders an ordinal as a zero-padded five-digit key.
func FormatZip(i uint32) string {
	return fmt.Sprintf("%05d", i)
}

// Flip swaps the fields, adding one to the new first and subtracting one from
// the new second. Both wrap.
func Flip(t entities.Tuple) entities.Tuple {
	return entities.Tuple{First: t.Second + 1, Second: t.First - 1}
}

// Add returns a + b, wrapping on overflow.
func Add(a, b uint32) uint32 {
	return a + b
}

// SumOfEven sums the even elements of values, wrapping on overflow.
func SumOfEven(values []uint32) uint32 {
	var sum uint32
	for _, v := range values {
		if v%2 == 0 {
			sum += v
		}
	}
	return sum
}

// CharCount returns the number of Unicode scalar values in text.
// It reports false if text is not valid UTF-8.
func CharCount(text []byte) (uint32, bool) {
	if !utf8.Valid(text) {
		return 0, false
	}
	return uint32(utf8.RuneCount(text)), true //nolint:gosec // G115: text length is bounded by a uint32 scan
}

// ThemeSong builds the song with n repetitions of the token.
func ThemeSong(n uint8) string {
	var b strings.Builder
	b.Grow(len(SongPrefix) + int(n)*len(SongToken) + len(SongSuffix))
	b.WriteString(SongPrefix)
	for range n {
		b.WriteString(SongToken)
	}
	b.WriteString(SongSuffix)
	return b.String()
}

// OwnedBuffer returns a fresh copy of the owned-buffer sequence.
func OwnedBuffer() []int32 {
	return entities.OwnedBufferValues()
}
