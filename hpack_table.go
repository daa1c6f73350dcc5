// Copyright 2025 The Kestrel Web Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.
package http2

import (
	"github.com/petar/GoLLRB/llrb"
)

type EntryType int

const (
	// Values affect entry ordering. Lookup entries are ordered before
	// Static entries, which are ordered before Dynamic entries so that
	// the encoder prefers the smaller static index on a tie.
	LookupEntry  EntryType = 0
	StaticEntry  EntryType = 1
	DynamicEntry EntryType = 2
)

type HpackEntry struct {
	Name, Value string

	Type           EntryType
	InsertionIndex int
}

func HpackEntrySize(name, value string) int {
	return len(name) + len(value) + HpackOverheadPerEntry
}

func (e *HpackEntry) Size() int {
	return len(e.Name) + len(e.Value) + HpackOverheadPerEntry
}

func (lhs *HpackEntry) Less(item llrb.Item) bool {
	rhs := item.(*HpackEntry)

	if lhs.Name != rhs.Name {
		return lhs.Name < rhs.Name
	}
	if lhs.Value != rhs.Value {
		return lhs.Value < rhs.Value
	}
	if lhs.Type != rhs.Type {
		return lhs.Type < rhs.Type
	}
	// Most-recent entry is ordered first.
	return lhs.InsertionIndex > rhs.InsertionIndex
}

// The shared compression context of one direction of a connection. Static
// entries occupy indices 1..61; dynamic entries follow, newest first, and
// are evicted oldest-first when the size limit shrinks or insertions
// overflow it.
type HpackTable struct {
	// Insertion order, oldest first.
	dynamicEntries []*HpackEntry

	// Items are *HpackEntry. Used by the encoder for name/value lookup.
	index *llrb.LLRB

	totalInsertions int

	size, maxSize, settingMaxSize int
}

func NewHpackTable() *HpackTable {
	table := &HpackTable{
		index:          llrb.New(),
		maxSize:        HpackInitialTableSize,
		settingMaxSize: HpackInitialTableSize,
	}
	for i := range kHpackStaticTable {
		table.index.InsertNoReplace(&kHpackStaticTable[i])
	}
	return table
}

func (t *HpackTable) MaxSize() int {
	return t.maxSize
}

func (t *HpackTable) SettingMaxSize() int {
	return t.settingMaxSize
}

func (t *HpackTable) Size() int {
	return t.size
}

// Returns the entry at |index|, or nil.
func (t *HpackTable) GetByIndex(index int) *HpackEntry {
	if index >= 1 && index <= len(kHpackStaticTable) {
		return &kHpackStaticTable[index-1]
	}
	index -= len(kHpackStaticTable)
	if index >= 1 && index <= len(t.dynamicEntries) {
		return t.dynamicEntries[len(t.dynamicEntries)-index]
	}
	return nil
}

// Returns the index of |entry|, which must be a table member.
func (t *HpackTable) IndexOf(entry *HpackEntry) int {
	if entry.Type == StaticEntry {
		return entry.InsertionIndex
	}
	return len(kHpackStaticTable) + t.totalInsertions - entry.InsertionIndex + 1
}

// Returns an entry having |name|, or nil.
func (t *HpackTable) GetByName(name string) *HpackEntry {
	var result *HpackEntry
	t.index.AscendGreaterOrEqual(&HpackEntry{Name: name},
		func(item llrb.Item) bool {
			if entry := item.(*HpackEntry); entry.Name == name {
				result = entry
			}
			return false
		})
	return result
}

// Returns the lowest-index entry having |name| and |value|, or nil.
func (t *HpackTable) GetByNameAndValue(name, value string) *HpackEntry {
	var result *HpackEntry
	t.index.AscendGreaterOrEqual(&HpackEntry{Name: name, Value: value},
		func(item llrb.Item) bool {
			entry := item.(*HpackEntry)
			if entry.Name == name && entry.Value == value {
				result = entry
			}
			return false
		})
	return result
}

// Add inserts a dynamic entry, evicting oldest-first to fit. An entry
// larger than the whole table empties it and is itself not added.
func (t *HpackTable) Add(name, value string) *HpackEntry {
	t.reclaim(HpackEntrySize(name, value))
	if t.size+HpackEntrySize(name, value) > t.maxSize {
		return nil
	}

	t.totalInsertions += 1
	entry := &HpackEntry{
		Name:           name,
		Value:          value,
		Type:           DynamicEntry,
		InsertionIndex: t.totalInsertions,
	}
	t.dynamicEntries = append(t.dynamicEntries, entry)
	t.size += entry.Size()
	t.index.InsertNoReplace(entry)
	return entry
}

// SetMaxSize applies a dynamic table-size update instruction.
func (t *HpackTable) SetMaxSize(size int) {
	t.maxSize = size
	t.reclaim(0)
}

// SetSettingMaxSize applies a SETTINGS_HEADER_TABLE_SIZE change. The
// effective limit may never exceed it.
func (t *HpackTable) SetSettingMaxSize(size int) {
	t.settingMaxSize = size
	if t.maxSize > size {
		t.SetMaxSize(size)
	}
}

func (t *HpackTable) reclaim(need int) {
	for len(t.dynamicEntries) > 0 && t.size+need > t.maxSize {
		evicted := t.dynamicEntries[0]
		t.dynamicEntries = t.dynamicEntries[1:]
		t.size -= evicted.Size()
		t.index.Delete(evicted)
	}
}

var kHpackStaticTable = buildStaticTable([][2]string{
	{":authority", ""},
	{":method", "GET"},
	{":method", "POST"},
	{":path", "/"},
	{":path", "/index.html"},
	{":scheme", "http"},
	{":scheme", "https"},
	{":status", "200"},
	{":status", "204"},
	{":status", "206"},
	{":status", "304"},
	{":status", "400"},
	{":status", "404"},
	{":status", "500"},
	{"accept-charset", ""},
	{"accept-encoding", "gzip, deflate"},
	{"accept-language", ""},
	{"accept-ranges", ""},
	{"accept", ""},
	{"access-control-allow-origin", ""},
	{"age", ""},
	{"allow", ""},
	{"authorization", ""},
	{"cache-control", ""},
	{"content-disposition", ""},
	{"content-encoding", ""},
	{"content-language", ""},
	{"content-length", ""},
	{"content-location", ""},
	{"content-range", ""},
	{"content-type", ""},
	{"cookie", ""},
	{"date", ""},
	{"etag", ""},
	{"expect", ""},
	{"expires", ""},
	{"from", ""},
	{"host", ""},
	{"if-match", ""},
	{"if-modified-since", ""},
	{"if-none-match", ""},
	{"if-range", ""},
	{"if-unmodified-since", ""},
	{"last-modified", ""},
	{"link", ""},
	{"location", ""},
	{"max-forwards", ""},
	{"proxy-authenticate", ""},
	{"proxy-authorization", ""},
	{"range", ""},
	{"referer", ""},
	{"refresh", ""},
	{"retry-after", ""},
	{"server", ""},
	{"set-cookie", ""},
	{"strict-transport-security", ""},
	{"transfer-encoding", ""},
	{"user-agent", ""},
	{"vary", ""},
	{"via", ""},
	{"www-authenticate", ""},
})

func buildStaticTable(pairs [][2]string) []HpackEntry {
	entries := make([]HpackEntry, len(pairs))
	for i, pair := range pairs {
		entries[i] = HpackEntry{
			Name:           pair[0],
			Value:          pair[1],
			Type:           StaticEntry,
			InsertionIndex: i + 1,
		}
	}
	return entries
}
