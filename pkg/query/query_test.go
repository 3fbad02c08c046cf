package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/example/opticstore/pkg/apperrors"
)

var productFields = map[string]bool{
	"price":    true,
	"stock":    true,
	"status":   true,
	"category": true,
}

func TestParseEqualityAndRange(t *testing.T) {
	values, _ := url.ParseQuery("status=Active&price[gte]=10&price[lt]=100")

	q, err := Parse(values, productFields)

	require.NoError(t, err)
	assert.Equal(t, "Active", q.Filter["status"])
	assert.Equal(t, bson.M{"$gte": 10.0, "$lt": 100.0}, q.Filter["price"])
}

func TestParseInOperator(t *testing.T) {
	values, _ := url.ParseQuery("category[in]=Sunglasses,Lenses")

	q, err := Parse(values, productFields)

	require.NoError(t, err)
	assert.Equal(t, bson.M{"$in": []interface{}{"Sunglasses", "Lenses"}}, q.Filter["category"])
}

func TestParseRejectsUnknownField(t *testing.T) {
	values, _ := url.ParseQuery("password[gte]=x")

	_, err := Parse(values, productFields)

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestParseRejectsUnknownOperator(t *testing.T) {
	values, _ := url.ParseQuery("price[regex]=.*")

	_, err := Parse(values, productFields)

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestParseSortDefaultsToNewestFirst(t *testing.T) {
	q, err := Parse(url.Values{}, productFields)

	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, q.Sort)
}

func TestParseSortSpec(t *testing.T) {
	values, _ := url.ParseQuery("sort=-price,stock")

	q, err := Parse(values, productFields)

	require.NoError(t, err)
	assert.Equal(t, bson.D{
		{Key: "price", Value: -1},
		{Key: "stock", Value: 1},
	}, q.Sort)
}

func TestParsePaginationDefaultsAndOverrides(t *testing.T) {
	q, err := Parse(url.Values{}, productFields)
	require.NoError(t, err)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 20, q.Limit)

	values, _ := url.ParseQuery("page=3&limit=5")
	q, err = Parse(values, productFields)
	require.NoError(t, err)
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, 5, q.Limit)
}

func TestParseRejectsBadPage(t *testing.T) {
	values, _ := url.ParseQuery("page=0")
	_, err := Parse(values, productFields)
	require.Error(t, err)

	values, _ = url.ParseQuery("limit=abc")
	_, err = Parse(values, productFields)
	require.Error(t, err)
}

func TestPaginate(t *testing.T) {
	q := &Query{Page: 2, Limit: 20}

	p := q.Paginate(45)

	assert.Equal(t, int64(45), p.Total)
	assert.True(t, p.HasNext)
	assert.True(t, p.HasPrev)

	p = q.Paginate(40)
	assert.False(t, p.HasNext)
}

func TestFieldProjection(t *testing.T) {
	values, _ := url.ParseQuery("fields=name,price")

	q, err := Parse(values, productFields)

	require.NoError(t, err)
	assert.Equal(t, []string{"name", "price"}, q.Fields)
}
