package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/onestay/MarathonRegistry-API/api/models"
	"github.com/onestay/MarathonRegistry-API/api/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ErrBadBody is returned by DecodeDocument when the body is not a JSON object.
var ErrBadBody = errors.New("request body must be a JSON object")

// Response will send out a generic response
func (c Controller) Response(res, err string, code int, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	ok := true
	if err != "" {
		ok = false
	}

	resStruct := httpResponse{
		Ok:   ok,
		Data: res,
		Err:  err,
	}

	json.NewEncoder(w).Encode(resStruct)
}

// JSON writes v as the response body.
func (c Controller) JSON(v interface{}, code int, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		c.Log.Warn("writing response", zap.Error(err))
	}
}

// ServerError logs err and answers with a generic 500.
func (c Controller) ServerError(action string, err error, w http.ResponseWriter) {
	c.LogError(action, err)
	c.Response("", fmt.Sprintf("error %v", action), http.StatusInternalServerError, w)
}

// LogError is a helper function to log any errors
func (c Controller) LogError(action string, err error) {
	c.Log.Error("An error occurred while "+action, zap.Error(err))
}

// DecodeDocument reads a JSON object from the request body. An empty body
// yields an empty document. Numbers are kept as json.Number so integers are
// stored as integers.
func DecodeDocument(r *http.Request) (models.Document, error) {
	doc := models.Document{}
	if r.Body == nil {
		return doc, nil
	}

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return models.Document{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrBadBody, err)
	}
	if doc == nil {
		// a literal null
		return models.Document{}, nil
	}

	return doc, nil
}

// IDString renders a document id for responses and feed events.
func IDString(id interface{}) string {
	switch v := id.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	case nil:
		return ""
	}

	return fmt.Sprint(id)
}

type insertResponse struct {
	*store.InsertResult
	Message string `json:"message"`
}

// Created answers 201 with the insert acknowledgement and a confirmation message.
func (c Controller) Created(res *store.InsertResult, msg string, w http.ResponseWriter) {
	c.JSON(insertResponse{InsertResult: res, Message: msg}, http.StatusCreated, w)
}
