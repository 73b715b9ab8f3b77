// Copyright 2025 PedanticGeek
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileIDRoundTrip(t *testing.T) {
	tests := []string{
		"report.pdf",
		"quarterly results 2025.docx",
		"weird-ümläut.txt",
	}
	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			id := FileIDFromName(name)
			back, err := id.Filename()
			require.NoError(t, err)
			assert.Equal(t, name, back)
		})
	}
}

func TestFileIDDeterministic(t *testing.T) {
	assert.Equal(t, FileIDFromName("a.pdf"), FileIDFromName("a.pdf"))
	assert.NotEqual(t, FileIDFromName("a.pdf"), FileIDFromName("b.pdf"))
}

func TestFileIDFilenameInvalid(t *testing.T) {
	_, err := FileID("not-hex!").Filename()
	assert.ErrorIs(t, err, ErrInvalidFileID)
}

func TestSectionIDs(t *testing.T) {
	id := FileIDFromName("a.pdf")
	assert.Equal(t, string(id)+"-page-0", id.SectionID(0))
	assert.Equal(t, string(id)+"-page-12", id.SectionID(12))
	assert.Equal(t, string(id)+"-summary", id.SummaryID())
	// The summary ID must never collide with a content section ID.
	for i := 0; i < 100; i++ {
		assert.NotEqual(t, id.SectionID(i), id.SummaryID())
	}
}

func TestPageMapOwningPage(t *testing.T) {
	pm := PageMap{
		{PageNum: 0, PageOffset: 0, PageText: strings.Repeat("a", 10)},
		{PageNum: 1, PageOffset: 10, PageText: strings.Repeat("b", 5)},
		{PageNum: 2, PageOffset: 15, PageText: strings.Repeat("c", 20)},
	}
	require.NoError(t, pm.Validate())

	assert.Equal(t, 0, pm.OwningPage(0))
	assert.Equal(t, 0, pm.OwningPage(9))
	assert.Equal(t, 1, pm.OwningPage(10))
	assert.Equal(t, 1, pm.OwningPage(14))
	assert.Equal(t, 2, pm.OwningPage(15))
	assert.Equal(t, 2, pm.OwningPage(34))
	// Past the end resolves to the last page.
	assert.Equal(t, 2, pm.OwningPage(1000))
}

func TestPageMapValidate(t *testing.T) {
	bad := PageMap{
		{PageNum: 0, PageOffset: 0, PageText: "aaaa"},
		{PageNum: 1, PageOffset: 3, PageText: "bb"}, // overlaps page 0
	}
	assert.ErrorIs(t, bad.Validate(), ErrInvalidPageMap)

	gap := PageMap{
		{PageNum: 0, PageOffset: 0, PageText: "aaaa"},
		{PageNum: 1, PageOffset: 5, PageText: "bb"},
	}
	assert.ErrorIs(t, gap.Validate(), ErrInvalidPageMap)
}

func TestBlobNames(t *testing.T) {
	assert.Equal(t, "sourcefiles/a.pdf", SourcefileKey("a.pdf"))
	assert.Equal(t, "report-page3.txt", PageTextBlobName("report.pdf", 3, false))
	assert.Equal(t, "report.pdf-page3.txt", PageTextBlobName("report.pdf", 3, true))
	assert.Equal(t, "report.pdf-page3.png", PageImageBlobName("report.pdf", 3))
	// No extension at all still works on the layout path.
	assert.Equal(t, "notes-page0.txt", PageTextBlobName("notes", 0, false))
}

func TestQueueMessageValidate(t *testing.T) {
	msg := &QueueMessage{Filename: "a.pdf", Sourcefile: "sourcefiles/a.pdf", ID: "41"}
	require.NoError(t, msg.Validate())

	assert.ErrorIs(t, (&QueueMessage{ID: "41"}).Validate(), ErrMissingField)
	assert.ErrorIs(t, (&QueueMessage{Filename: "a.pdf"}).Validate(), ErrMissingField)
}
