package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tipoCambioFixture = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">
  <soap:Body>
    <TipoCambioDiaResponse xmlns="http://www.banguat.gob.gt/variables/ws/">
      <TipoCambioDiaResult>
        <CambioDolar>
          <VarDolar>
            <fecha>27/08/2026</fecha>
            <referencia>7.68524</referencia>
          </VarDolar>
        </CambioDolar>
      </TipoCambioDiaResult>
    </TipoCambioDiaResponse>
  </soap:Body>
</soap:Envelope>`

func TestGetReferenceRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/soap+xml")
		w.Header().Set("Content-Type", "application/soap+xml; charset=utf-8")
		w.Write([]byte(tipoCambioFixture))
	}))
	defer srv.Close()

	client := NewBanguatClient(testLogger())
	client.endpoint = srv.URL

	rate, err := client.GetReferenceRate(context.Background())
	require.NoError(t, err)
	assert.True(t, rate.Rate.Equal(decimal.RequireFromString("7.68524")))
	assert.Equal(t, "2026-08-27", rate.Date.Format("2006-01-02"))
}

func TestParseTipoCambioResponseMissingRate(t *testing.T) {
	_, err := parseTipoCambioResponse([]byte(`<?xml version="1.0"?><Envelope><Body/></Envelope>`))
	assert.Error(t, err)
}

func TestParseTipoCambioResponseInvalidXML(t *testing.T) {
	_, err := parseTipoCambioResponse([]byte(`not xml at all`))
	assert.Error(t, err)
}
