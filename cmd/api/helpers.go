package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/paisapath/PaisaPath/internal/data"
	"github.com/paisapath/PaisaPath/internal/validator"
	"go.uber.org/zap"
)

// Define an envelope type.
type envelope map[string]any

// Define a writeJSON() helper for sending responses. This takes the destination
// http.ResponseWriter, the HTTP status code to send, the data to encode to JSON, and a
// header map containing any additional HTTP headers we want to include in the response.
func (app *application) writeJSON(w http.ResponseWriter, status int, data envelope, headers http.Header) error {
	// Encode the data to JSON, returning the error if there was one.
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	// Append a newline to make it easier to view in terminal applications.
	js = append(js, '\n')
	// At this point, we know that we won't encounter any more errors before writing the
	// response, so it's safe to add any headers that we want to include.
	for key, value := range headers {
		w.Header()[key] = value
	}
	// Add the "Content-Type: application/json" header, then write the status code
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)
	return nil
}

func (app *application) readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	// Use http.MaxBytesReader() to limit the size of the request body to 1MB.
	maxBytes := 1_048_576
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))
	// Initialize the json.Decoder, and call the DisallowUnknownFields() method on it
	// before decoding, so unknown body keys fail loudly rather than silently.
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	// Decode the request body to the destination.
	err := dec.Decode(dst)
	err = app.jsonReadAndHandleError(err)
	if err != nil {
		return err
	}
	// Call Decode() again, using a pointer to an empty anonymous struct as the
	// destination. If the request body only contained a single JSON value this will
	// return an io.EOF error, anything else means trailing data.
	err = dec.Decode(&struct{}{})
	if err != io.EOF {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}

func (app *application) jsonReadAndHandleError(err error) error {
	if err != nil {
		// Vars to carry our errors
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError
		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}
	return nil
}

// readStringParam() reads a named opaque-string parameter from the request URL.
// Goal and user IDs are caller-supplied opaque strings, not numeric IDs.
func (app *application) readStringParam(r *http.Request, paramName string) (string, error) {
	param := chi.URLParam(r, paramName)
	if param == "" {
		return "", fmt.Errorf("missing %s parameter", paramName)
	}
	return param, nil
}

// readString() returns a string value from the query string, or the provided
// default value if no matching key could be found.
func (app *application) readString(qs url.Values, key string, defaultValue string) string {
	s := qs.Get(key)
	if s == "" {
		return defaultValue
	}
	return s
}

// readInt() returns an integer value from the query string, or the provided default
// value. A non-integer value gets recorded as a validation error.
func (app *application) readInt(qs url.Values, key string, defaultValue int, v *validator.Validator) int {
	s := qs.Get(key)
	if s == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		v.AddError(key, "must be an integer value")
		return defaultValue
	}
	return i
}

// The background() helper accepts an arbitrary function as a parameter.
func (app *application) background(fn func()) {
	app.wg.Add(1)
	// Launch a background goroutine.
	go func() {
		defer app.wg.Done()
		// Recover any panic.
		defer func() {
			if err := recover(); err != nil {
				app.logger.Error(fmt.Sprintf("%s", err))
			}
		}()
		// Execute the arbitrary function that we passed as the parameter.
		fn()
	}()
}

// saveCurrenciesToRedis() saves a currency list to REDIS with the currency as the key
// and the rate as the value. Used to validate goal currency codes.
func (app *application) saveCurrenciesToRedis(rates CurrencyRates) error {
	for currency, rate := range rates.ConversionRates {
		err := app.RedisDB.HSet(context.Background(), "currency_rates", currency, rate).Err()
		if err != nil {
			return fmt.Errorf("failed to save currency rate: %w", err)
		}
	}
	return nil
}

// seedDefaultCurrency() writes a unit rate for the default currency, so goals
// in the default currency always validate even when the rate API is down.
func (app *application) seedDefaultCurrency() error {
	return app.RedisDB.HSet(context.Background(), "currency_rates", app.config.api.defaultcurrency, 1.0).Err()
}

// verifyCurrencyInRedis() checks if a currency exists in REDIS.
func (app *application) verifyCurrencyInRedis(currency string) error {
	exists, err := app.RedisDB.HExists(context.Background(), "currency_rates", currency).Result()
	if err != nil {
		return err
	}
	if !exists {
		return data.ErrFailedToGetCurrency
	}
	app.logger.Info("Currency exists in Redis", zap.String("currency", currency))
	return nil
}

// getAndSaveAvailableCurrencies() gets the available currencies from the exchange rate API
func (app *application) getAndSaveAvailableCurrencies() error {
	url := fmt.Sprintf("%s/%s/latest/%s", app.config.api.apikeys.exchangerates.url,
		app.config.api.apikeys.exchangerates.key, app.config.api.defaultcurrency)
	currencies, err := GETRequest[CurrencyRates](app.http_client, url, nil)
	if err != nil {
		return err
	}
	// Save the currencies to Redis
	err = app.saveCurrenciesToRedis(currencies)
	if err != nil {
		return err
	}
	return nil
}
