package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_DecodeUntypedPayload_ValidJSON(t *testing.T) {
	payload, err := DecodeUntypedPayload([]byte(`{"productCode":"P-100","pickedQuantity":5}`))

	require.NoError(t, err)
	assert.Len(t, payload, 2)
}

func Test_DecodeUntypedPayload_InvalidJSON_IsPoison(t *testing.T) {
	_, err := DecodeUntypedPayload([]byte(`{broken`))

	assert.ErrorIs(t, err, ErrMalformedEvent)
	assert.True(t, IsPoison(err))
}

func Test_StringField_Present(t *testing.T) {
	payload := UntypedPayload{"productCode": "P-100"}

	value, err := payload.StringField("productCode")

	require.NoError(t, err)
	assert.Equal(t, "P-100", value)
}

func Test_StringField_Missing_IsPoison(t *testing.T) {
	payload := UntypedPayload{"locationId": "loc-9"}

	_, err := payload.StringField("productCode")

	assert.ErrorIs(t, err, ErrMalformedEvent)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "productCode", decodeErr.Field)
}

func Test_StringField_WrongType(t *testing.T) {
	payload := UntypedPayload{"productCode": 42.0}

	_, err := payload.StringField("productCode")

	assert.ErrorIs(t, err, ErrMalformedEvent)
}

func Test_StringField_Empty(t *testing.T) {
	payload := UntypedPayload{"productCode": ""}

	_, err := payload.StringField("productCode")

	assert.ErrorIs(t, err, ErrMalformedEvent)
}

func Test_OptionalStringField_Absent_IsNotAnError(t *testing.T) {
	payload := UntypedPayload{}

	value, err := payload.OptionalStringField("tenantId")

	require.NoError(t, err)
	assert.Empty(t, value)
}

func Test_OptionalStringField_PresentWithWrongType_IsPoison(t *testing.T) {
	payload := UntypedPayload{"tenantId": 7.0}

	_, err := payload.OptionalStringField("tenantId")

	assert.ErrorIs(t, err, ErrMalformedEvent)
}

func Test_IntField_Present(t *testing.T) {
	payload := UntypedPayload{"pickedQuantity": 5.0}

	value, err := payload.IntField("pickedQuantity")

	require.NoError(t, err)
	assert.Equal(t, 5, value)
}

func Test_IntField_Fractional_IsPoison(t *testing.T) {
	payload := UntypedPayload{"pickedQuantity": 5.5}

	_, err := payload.IntField("pickedQuantity")

	assert.ErrorIs(t, err, ErrMalformedEvent)
}

func Test_IntField_Missing_IsPoison(t *testing.T) {
	payload := UntypedPayload{}

	_, err := payload.IntField("pickedQuantity")

	assert.ErrorIs(t, err, ErrMalformedEvent)
}
