package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/jokeboard/internal/domain"
)

func sampleJoke() domain.Joke {
	return domain.Joke{
		ID:         "abc",
		Value:      "Chuck Norris counted to infinity. Twice.",
		Categories: []string{"dev", "science"},
		IconURL:    "https://api.chucknorris.io/img/avatar/chuck-norris.png",
		URL:        "https://api.chucknorris.io/jokes/abc",
		CreatedAt:  "2020-01-05 13:42:19.324003",
		UpdatedAt:  "2020-01-05 13:42:19.324003",
	}
}

// fakeSource lists filtered but resolves ids against all.
type fakeSource struct {
	all      []domain.Joke
	filtered []domain.Joke
}

func (f fakeSource) FilteredJokes() []domain.Joke { return f.filtered }

func (f fakeSource) GetJokeByID(id string) (*domain.Joke, bool) {
	for i := range f.all {
		if f.all[i].ID == id {
			j := f.all[i]
			return &j, true
		}
	}
	return nil, false
}

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	return doc
}

func TestDefaultColumns_Order(t *testing.T) {
	var keys []string
	for _, col := range DefaultColumns() {
		keys = append(keys, col.Key)
	}

	assert.Equal(t, []string{KeyIcon, KeyValue, KeyCategories, KeyCreatedAt, KeyUpdatedAt, KeyURL}, keys)

	// Callers get their own copy.
	cols := DefaultColumns()
	cols[0].Label = "changed"
	assert.Equal(t, "Icon", DefaultColumns()[0].Label)
}

func TestSelectColumns(t *testing.T) {
	cols, err := SelectColumns([]string{"value", " url"})
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, KindPlain, cols[0].Kind)
	assert.Equal(t, KindLink, cols[1].Kind)

	_, err = SelectColumns([]string{"value", "punchline"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"punchline"`)
}

func TestField(t *testing.T) {
	joke := sampleJoke()

	assert.Equal(t, Value{Text: "abc"}, Field(&joke, KeyID))
	assert.Equal(t, Value{List: []string{"dev", "science"}}, Field(&joke, KeyCategories))
	assert.True(t, Field(&joke, "punchline").IsEmpty())
	assert.True(t, Field(nil, KeyValue).IsEmpty())
	assert.Equal(t, "dev, science", Field(&joke, KeyCategories).String())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "tags", KindTags.String())
	assert.Equal(t, "kind(42)", Kind(42).String())
}

func TestCell(t *testing.T) {
	joke := sampleJoke()

	tests := []struct {
		name string
		col  Column
		want string
	}{
		{"plain", Column{Key: KeyValue, Kind: KindPlain}, "Chuck Norris counted to infinity. Twice."},
		{"date", Column{Key: KeyCreatedAt, Kind: KindDate}, "Jan 5, 2020"},
		{"tags", Column{Key: KeyCategories, Kind: KindTags},
			`<span class="badge">dev</span><span class="badge">science</span>`},
		{"plain list", Column{Key: KeyCategories, Kind: KindPlain}, "dev, science"},
		{"unknown key", Column{Key: "punchline", Kind: KindPlain}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(Cell(tt.col, &joke)))
		})
	}
}

func TestCell_Link(t *testing.T) {
	joke := sampleJoke()

	link := parse(t, string(Cell(Column{Key: KeyURL, Kind: KindLink}, &joke))).Find("a")
	require.Equal(t, 1, link.Length())

	href, _ := link.Attr("href")
	target, _ := link.Attr("target")
	rel, _ := link.Attr("rel")

	assert.Equal(t, joke.URL, href)
	assert.Equal(t, joke.URL, link.Text())
	assert.Equal(t, "_blank", target)
	assert.Contains(t, rel, "noopener")
	assert.Contains(t, rel, "noreferrer")
}

func TestCell_Image(t *testing.T) {
	joke := sampleJoke()

	img := parse(t, string(Cell(Column{Key: KeyIcon, Label: "Icon", Kind: KindImage}, &joke))).Find("img")
	require.Equal(t, 1, img.Length())

	src, _ := img.Attr("src")
	alt, _ := img.Attr("alt")
	width, _ := img.Attr("width")

	assert.Equal(t, joke.IconURL, src)
	assert.Equal(t, "Icon", alt)
	assert.Equal(t, "32", width)
}

func TestCell_EscapesAndRejectsUnsafeURLs(t *testing.T) {
	joke := domain.Joke{
		Value:     `<script>alert("x")</script>`,
		URL:       "javascript:alert(1)",
		IconURL:   "data:image/png;base64,AAAA",
		CreatedAt: "not a date",
	}

	assert.Equal(t, "&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt;", string(Cell(Column{Key: KeyValue}, &joke)))
	assert.Equal(t, "javascript:alert(1)", string(Cell(Column{Key: KeyURL, Kind: KindLink}, &joke)))
	assert.Empty(t, string(Cell(Column{Key: KeyIcon, Kind: KindImage}, &joke)))
	assert.Equal(t, "not a date", string(Cell(Column{Key: KeyCreatedAt, Kind: KindDate}, &joke)))
}

func TestCell_EmptyTags(t *testing.T) {
	joke := sampleJoke()
	joke.Categories = []string{}

	assert.Empty(t, string(Cell(Column{Key: KeyCategories, Kind: KindTags}, &joke)))
}

func TestTextCell(t *testing.T) {
	joke := sampleJoke()

	assert.Equal(t, "Jan 5, 2020", TextCell(Column{Key: KeyUpdatedAt, Kind: KindDate}, &joke))
	assert.Equal(t, "dev, science", TextCell(Column{Key: KeyCategories, Kind: KindTags}, &joke))
	assert.Equal(t, joke.URL, TextCell(Column{Key: KeyURL, Kind: KindLink}, &joke))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "Jan 5, 2020", FormatDate("2020-01-05 13:42:19.324003"))
	assert.Equal(t, "Mar 1, 2016", FormatDate("2016-03-01T10:00:00Z"))
	assert.Equal(t, "yesterday", FormatDate("yesterday"))
}

func TestRow_UnknownIDRendersNothing(t *testing.T) {
	src := fakeSource{all: []domain.Joke{sampleJoke()}}

	row, ok := Row(src.GetJokeByID, "missing", DefaultColumns())

	assert.False(t, ok)
	assert.Empty(t, row.Cells)
}

func TestRow_CellsFollowColumnOrder(t *testing.T) {
	src := fakeSource{all: []domain.Joke{sampleJoke()}}
	cols := DefaultColumns()

	row, ok := Row(src.GetJokeByID, "abc", cols)

	require.True(t, ok)
	require.Len(t, row.Cells, len(cols))
	for i, col := range cols {
		assert.Equal(t, Cell(col, &src.all[0]), row.Cells[i], col.Key)
	}
}

func TestTable_SkipsUnresolvableRows(t *testing.T) {
	kept := sampleJoke()
	stale := domain.Joke{ID: "gone", Value: "stale"}

	view := Table(fakeSource{all: []domain.Joke{kept}, filtered: []domain.Joke{stale, kept}}, DefaultColumns())

	require.Len(t, view.Rows, 1)
	assert.Equal(t, "abc", view.Rows[0].ID)
}

func TestRenderer_Table(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	second := sampleJoke()
	second.ID = "def"
	second.Categories = nil

	src := fakeSource{all: []domain.Joke{sampleJoke(), second}, filtered: []domain.Joke{sampleJoke(), second}}

	var buf bytes.Buffer
	require.NoError(t, r.Table(&buf, Table(src, DefaultColumns())))

	doc := parse(t, buf.String())

	headers := doc.Find("thead th").Map(func(_ int, s *goquery.Selection) string { return s.Text() })
	assert.Equal(t, []string{"Icon", "Joke", "Categories", "Created", "Updated", "Link"}, headers)

	rows := doc.Find("tbody tr")
	require.Equal(t, 2, rows.Length())
	assert.Equal(t, "abc", rows.First().AttrOr("data-id", ""))

	first := rows.First()
	assert.Equal(t, len(headers), first.Find("td").Length())
	assert.Equal(t, 2, first.Find("span.badge").Length())
	assert.Equal(t, "https://api.chucknorris.io/jokes/abc", first.Find("a").AttrOr("href", ""))
	assert.Equal(t, 1, first.Find("img").Length())
	assert.Equal(t, "Jan 5, 2020", first.Find("td").Eq(3).Text())

	assert.Zero(t, rows.Eq(1).Find("span.badge").Length())
}

func TestRenderer_Row(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	src := fakeSource{all: []domain.Joke{sampleJoke()}}
	columns := DefaultColumns()[:2]

	row, ok := Row(src.GetJokeByID, "abc", columns)
	require.True(t, ok)

	var buf bytes.Buffer
	require.NoError(t, r.Row(&buf, row))

	doc := parse(t, "<table>"+buf.String()+"</table>")
	tr := doc.Find("tr[data-id=abc]")
	require.Equal(t, 1, tr.Length())
	assert.Equal(t, 2, tr.Find("td").Length())
	assert.Equal(t, "Chuck Norris counted to infinity. Twice.", tr.Find("td").Eq(1).Text())
}

func TestRenderer_TableEmpty(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Table(&buf, TableView{Columns: DefaultColumns()}))

	doc := parse(t, buf.String())
	assert.Equal(t, "No jokes match.", doc.Find("tbody tr.empty td").Text())
	assert.Equal(t, "6", doc.Find("tbody tr.empty td").AttrOr("colspan", ""))
}

func TestRenderer_Page(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	src := fakeSource{all: []domain.Joke{sampleJoke()}, filtered: []domain.Joke{sampleJoke()}}

	var buf bytes.Buffer
	require.NoError(t, r.Page(&buf, PageView{
		Title:  "Jokeboard",
		Query:  `"chuck"`,
		Status: "failed",
		Error:  "joke source unavailable",
		Count:  3,
		Table:  Table(src, DefaultColumns()),
	}))

	doc := parse(t, buf.String())

	assert.Equal(t, "Jokeboard", doc.Find("title").Text())
	assert.Equal(t, `"chuck"`, doc.Find("input#q").AttrOr("value", ""))
	assert.Equal(t, "search", doc.Find("input#q").AttrOr("type", ""))
	assert.Contains(t, doc.Find(".banner").Text(), "joke source unavailable")
	assert.Equal(t, "3", doc.Find("form.refresh input[name=count]").AttrOr("value", ""))
	assert.Equal(t, 1, doc.Find("#jokes-table tbody tr").Length())
	assert.Contains(t, doc.Find("script").Text(), "/jokes/table?q=")
}

func TestRenderer_PageWithoutError(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Page(&buf, PageView{Title: "Jokeboard", Table: TableView{Columns: DefaultColumns()}}))

	assert.Zero(t, parse(t, buf.String()).Find(".banner").Length())
}

func TestRenderText(t *testing.T) {
	cols, err := SelectColumns([]string{KeyValue, KeyCategories, KeyCreatedAt})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, []domain.Joke{sampleJoke()}, cols))

	out := buf.String()
	assert.Contains(t, out, "Joke")
	assert.Contains(t, out, "Categories")
	assert.Contains(t, out, "dev, science")
	assert.Contains(t, out, "Jan 5, 2020")
	assert.Less(t, strings.Index(out, "Joke"), strings.Index(out, "Categories"))
}
