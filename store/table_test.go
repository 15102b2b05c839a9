package store

import (
	"bytes"
	"encoding/gob"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/colsearch/model"
	internalErrors "github.com/gcbaptista/colsearch/internal/errors"
)

func TestArrayTableAssignsSequentialIDs(t *testing.T) {
	articles := NewTable("Articles", TableOptions{Kind: model.KindArray})

	first, err := articles.Add("")
	require.NoError(t, err)
	second, err := articles.Add("ignored")
	require.NoError(t, err)

	assert.Equal(t, model.RecordID(1), first.ID())
	assert.Equal(t, model.RecordID(2), second.ID())
	assert.Equal(t, "", second.Key())
	assert.Equal(t, 2, articles.Size())
	assert.False(t, articles.HasColumn(ColumnKey))
	assert.True(t, articles.HasColumn(ColumnID))
}

func TestHashTableReturnsExistingRecordForKey(t *testing.T) {
	users := NewTable("Users", TableOptions{Kind: model.KindHash})

	morita, err := users.Add("morita")
	require.NoError(t, err)
	again, err := users.Add("morita")
	require.NoError(t, err)
	assert.Equal(t, morita.ID(), again.ID())

	_, err = users.Add("")
	assert.True(t, errors.Is(err, internalErrors.ErrInvalidInput))

	found, ok := users.RecordByKey("morita")
	require.True(t, ok)
	assert.Equal(t, morita.ID(), found.ID())

	key, err := found.Get(ColumnKey)
	require.NoError(t, err)
	assert.Equal(t, "morita", key)
}

func TestPatriciaTriePrefixSearch(t *testing.T) {
	terms := NewTable("Terms", TableOptions{Kind: model.KindPatriciaTrie})
	for _, key := range []string{"search", "sea", "groonga", "seat", "ruby"} {
		_, err := terms.Add(key)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"groonga", "ruby", "sea", "search", "seat"}, terms.Keys())

	keys := make([]string, 0)
	for _, r := range terms.PrefixSearch("sea") {
		keys = append(keys, r.Key())
	}
	assert.Equal(t, []string{"sea", "search", "seat"}, keys)

	require.NoError(t, terms.DeleteByKey("seat"))
	assert.Equal(t, []string{"groonga", "ruby", "sea", "search"}, terms.Keys())
}

func TestColumnSetAndGet(t *testing.T) {
	users := NewTable("Users", TableOptions{Kind: model.KindHash})
	_, err := users.DefineColumn("name", model.TypeShortText, false)
	require.NoError(t, err)
	_, err = users.DefineColumn("tags", model.TypeShortText, true)
	require.NoError(t, err)
	_, err = users.DefineColumn("age", model.TypeInt, false)
	require.NoError(t, err)

	morita, err := users.Insert("morita", model.Values{
		"name": "mori daijiro",
		"tags": []interface{}{"ruby", "groonga"},
		"age":  float64(30),
	})
	require.NoError(t, err)

	name, err := morita.Get("name")
	require.NoError(t, err)
	assert.Equal(t, "mori daijiro", name)

	tags, err := morita.Get("tags")
	require.NoError(t, err)
	assert.Equal(t, []string{"ruby", "groonga"}, tags)

	age, err := morita.Get("age")
	require.NoError(t, err)
	assert.Equal(t, int64(30), age)

	_, err = morita.Get("missing")
	assert.True(t, errors.Is(err, internalErrors.ErrNoSuchColumn))

	err = morita.Set("age", "thirty")
	assert.True(t, errors.Is(err, internalErrors.ErrInvalidInput))
}

func TestDefineColumnValidation(t *testing.T) {
	users := NewTable("Users", TableOptions{Kind: model.KindHash})
	_, err := users.DefineColumn("name", model.TypeShortText, false)
	require.NoError(t, err)

	tests := []struct {
		name     string
		column   string
		sentinel error
	}{
		{"duplicate", "name", internalErrors.ErrDuplicateName},
		{"empty", "", internalErrors.ErrInvalidInput},
		{"pseudo column", "_id", internalErrors.ErrInvalidInput},
		{"dotted", "a.b", internalErrors.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := users.DefineColumn(tt.column, model.TypeText, false)
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)
		})
	}
}

func TestWriteHooksSeeOldAndNewValues(t *testing.T) {
	articles := NewTable("Articles", TableOptions{Kind: model.KindArray})
	content, err := articles.DefineColumn("content", model.TypeText, false)
	require.NoError(t, err)

	type write struct {
		id       model.RecordID
		old, new interface{}
	}
	var writes []write
	content.AddHook("test", func(id model.RecordID, oldValue, newValue interface{}) {
		writes = append(writes, write{id, oldValue, newValue})
	})

	record, err := articles.Insert("", model.Values{"content": "first"})
	require.NoError(t, err)
	require.NoError(t, record.Set("content", "second"))
	require.NoError(t, articles.Delete(record.ID()))

	assert.Equal(t, []write{
		{record.ID(), nil, "first"},
		{record.ID(), "first", "second"},
		{record.ID(), "second", nil},
	}, writes)

	content.RemoveHook("test")
	_, err = articles.Insert("", model.Values{"content": "third"})
	require.NoError(t, err)
	assert.Len(t, writes, 3)

	err = articles.Delete(record.ID())
	assert.True(t, errors.Is(err, internalErrors.ErrRecordNotFound))
	assert.False(t, record.Valid())
}

func TestTableGobRoundTrip(t *testing.T) {
	users := NewTable("Users", TableOptions{Kind: model.KindPatriciaTrie, DefaultTokenizer: "TokenBigram"})
	_, err := users.DefineColumn("name", model.TypeShortText, false)
	require.NoError(t, err)
	_, err = users.DefineColumn("tags", model.TypeShortText, true)
	require.NoError(t, err)
	_, err = users.Insert("morita", model.Values{"name": "mori daijiro", "tags": []string{"ruby"}})
	require.NoError(t, err)
	gunyara, err := users.Insert("gunyara-kun", model.Values{"name": "Tasuku SUENAGA"})
	require.NoError(t, err)
	require.NoError(t, users.Delete(gunyara.ID()))
	_, err = users.Insert("yu", model.Values{"name": "Yutaro"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(users))

	decoded := &Table{}
	require.NoError(t, gob.NewDecoder(&buf).Decode(decoded))

	assert.Equal(t, "Users", decoded.Name())
	assert.Equal(t, model.KindPatriciaTrie, decoded.Kind())
	assert.Equal(t, "TokenBigram", decoded.DefaultTokenizer())
	assert.Equal(t, users.IDs(), decoded.IDs())
	assert.Equal(t, []string{"morita", "yu"}, decoded.Keys())

	morita, ok := decoded.RecordByKey("morita")
	require.True(t, ok)
	tags, err := morita.Get("tags")
	require.NoError(t, err)
	assert.Equal(t, []string{"ruby"}, tags)

	next, err := decoded.Add("new")
	require.NoError(t, err)
	assert.Equal(t, model.RecordID(4), next.ID())
}
