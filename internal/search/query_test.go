package search_test

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/Gunvolt24/ordersync/internal/domain"
	"github.com/Gunvolt24/ordersync/internal/search"
	"github.com/stretchr/testify/require"
)

func TestMeiliFilter(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		f    domain.OrderFilter
		want string
	}{
		{name: "empty", f: domain.OrderFilter{}, want: ""},
		{
			name: "query only",
			f:    domain.OrderFilter{Query: "chair"},
			want: `search_text CONTAINS "chair"`,
		},
		{
			name: "range only",
			f:    domain.OrderFilter{From: &from, To: &to},
			want: "created_at >= 1735689600000000 AND created_at <= 1735776000000000",
		},
		{
			name: "all",
			f:    domain.OrderFilter{Query: "oak", From: &from},
			want: `search_text CONTAINS "oak" AND created_at >= 1735689600000000`,
		},
		{
			name: "query is lowercased",
			f:    domain.OrderFilter{Query: "Стул"},
			want: `search_text CONTAINS "стул"`,
		},
		{
			name: "escaping",
			f:    domain.OrderFilter{Query: `a "b" \c`},
			want: `search_text CONTAINS "a \"b\" \\c"`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, search.MeiliFilter(tc.f))
		})
	}
}

func TestTextChunks_ShortTextIsOneChunk(t *testing.T) {
	require.Equal(t, []string{"office chair", "black"}, search.TextChunks("Office Chair", "Black"))
	require.Empty(t, search.TextChunks("", ""))
}

func TestTextChunks_EveryQueryFitsSomeChunk(t *testing.T) {
	// 500 символов кириллицы: 1000 байт, несколько кусков
	var b strings.Builder
	for i := 0; b.Len() < 1000; i++ {
		b.WriteRune('а' + rune(i%32))
	}
	text := b.String()
	chunks := search.TextChunks(text)
	require.Greater(t, len(chunks), 1)

	for _, c := range chunks {
		require.LessOrEqual(t, len(c), search.ChunkBytes)
		require.True(t, utf8.ValidString(c), "chunk must not split a rune")
	}

	runes := []rune(text)
	for start := 0; start+domain.MaxQueryLen <= len(runes); start++ {
		q := string(runes[start : start+domain.MaxQueryLen])
		found := false
		for _, c := range chunks {
			if strings.Contains(c, q) {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("substring at rune %d is not inside any chunk", start)
		}
	}
}

func TestMeiliSort(t *testing.T) {
	require.Equal(t, []string{"created_at:desc", "id:desc"}, search.MeiliSort(domain.SortCreatedDesc))
	require.Equal(t, []string{"created_at:asc", "id:asc"}, search.MeiliSort(domain.SortCreatedAsc))
	require.Equal(t, []string{"created_at:desc", "id:desc"}, search.MeiliSort(""))
}

func TestMatches_CaseInsensitiveSubstring(t *testing.T) {
	o := &domain.Order{Name: "Oak Chair", Description: "Hand-made", CreatedAt: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}

	require.True(t, search.Matches(o, domain.OrderFilter{Query: "chair"}))
	require.True(t, search.Matches(o, domain.OrderFilter{Query: "CHAIR"}))
	require.True(t, search.Matches(o, domain.OrderFilter{Query: "k ch"}), "подстрока в середине слова")
	require.True(t, search.Matches(o, domain.OrderFilter{Query: "MADE"}), "совпадение в description")
	require.False(t, search.Matches(o, domain.OrderFilter{Query: "table"}))
	require.True(t, search.Matches(o, domain.OrderFilter{}), "пустой фильтр совпадает со всем")
}

func TestMatches_InclusiveRange(t *testing.T) {
	at := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	o := &domain.Order{Name: "x", CreatedAt: at}
	before, after := at.Add(-time.Microsecond), at.Add(time.Microsecond)

	require.True(t, search.Matches(o, domain.OrderFilter{From: &at, To: &at}))
	require.False(t, search.Matches(o, domain.OrderFilter{From: &after}))
	require.False(t, search.Matches(o, domain.OrderFilter{To: &before}))
	require.False(t, search.Matches(o, domain.OrderFilter{Query: "y", From: &before, To: &after}), "условия через AND")
}

func TestSortOrdersAndPaginate(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	orders := []*domain.Order{
		{ID: 1, CreatedAt: at},
		{ID: 3, CreatedAt: at.Add(time.Hour)},
		{ID: 2, CreatedAt: at},
	}

	search.SortOrders(orders, domain.SortCreatedDesc)
	require.Equal(t, []int64{3, 2, 1}, []int64{orders[0].ID, orders[1].ID, orders[2].ID})

	search.SortOrders(orders, domain.SortCreatedAsc)
	require.Equal(t, []int64{1, 2, 3}, []int64{orders[0].ID, orders[1].ID, orders[2].ID})

	require.Len(t, search.Paginate(orders, 1, 1), 1)
	require.Equal(t, int64(2), search.Paginate(orders, 1, 1)[0].ID)
	require.Empty(t, search.Paginate(orders, 5, 10))
	require.Len(t, search.Paginate(orders, 0, 0), 3)
}
