package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const banguatEndpoint = "https://banguat.gob.gt/variables/ws/TipoCambio.asmx"

// ExchangeRate is the daily GTQ-per-USD reference rate published by the
// Banco de Guatemala.
type ExchangeRate struct {
	Date time.Time       `json:"date"`
	Rate decimal.Decimal `json:"rate"`
}

// BanguatClient talks to the Banguat TipoCambio SOAP web service.
type BanguatClient struct {
	httpClient *http.Client
	endpoint   string
	logger     *logrus.Logger
}

func NewBanguatClient(logger *logrus.Logger) *BanguatClient {
	return &BanguatClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		endpoint: banguatEndpoint,
		logger:   logger,
	}
}

func buildTipoCambioRequest() string {
	return `<?xml version="1.0" encoding="utf-8"?>
        <soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
            <soap12:Body>
                <TipoCambioDia xmlns="http://www.banguat.gob.gt/variables/ws/" />
            </soap12:Body>
        </soap12:Envelope>`
}

func (c *BanguatClient) sendRequest(ctx context.Context, soapRequest string) ([]byte, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.endpoint,
		bytes.NewBufferString(soapRequest),
	)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
	req.Header.Set("SOAPAction", "http://www.banguat.gob.gt/variables/ws/TipoCambioDia")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call Banguat: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read Banguat response: %w", err)
	}

	return rawBody, nil
}

// parseTipoCambioResponse extracts the reference rate and its date from the
// SOAP response.
func parseTipoCambioResponse(rawBody []byte) (*ExchangeRate, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	varDolar := doc.FindElement("//CambioDolar/VarDolar")
	if varDolar == nil {
		return nil, errors.New("reference rate not found in response")
	}

	refElement := varDolar.FindElement("./referencia")
	if refElement == nil {
		return nil, errors.New("element <referencia> missing in response")
	}

	rate, err := decimal.NewFromString(refElement.Text())
	if err != nil {
		return nil, fmt.Errorf("failed to parse rate: %w", err)
	}

	date := time.Now()
	if fechaElement := varDolar.FindElement("./fecha"); fechaElement != nil {
		if parsed, err := time.Parse("02/01/2006", fechaElement.Text()); err == nil {
			date = parsed
		}
	}

	return &ExchangeRate{Date: date, Rate: rate}, nil
}

// GetReferenceRate fetches today's GTQ-per-USD reference rate.
func (c *BanguatClient) GetReferenceRate(ctx context.Context) (*ExchangeRate, error) {
	c.logger.Info("Requesting reference exchange rate from Banguat")

	rawBody, err := c.sendRequest(ctx, buildTipoCambioRequest())
	if err != nil {
		c.logger.WithError(err).Error("Failed to request rate from Banguat")
		return nil, err
	}

	rate, err := parseTipoCambioResponse(rawBody)
	if err != nil {
		c.logger.WithError(err).Error("Failed to parse Banguat response")
		return nil, err
	}

	c.logger.WithField("rate", rate.Rate).Info("Reference rate received")
	return rate, nil
}
