package util

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

func RespondInternalServerError(writer http.ResponseWriter, err error) {
	writer.WriteHeader(http.StatusInternalServerError)
	fmt.Fprintf(writer, "Internal Server Error\n")
	log.Printf("internal error: %+v\n", err)
}

func RespondValidationError(writer http.ResponseWriter, message string) {
	writer.WriteHeader(http.StatusBadRequest)
	fmt.Fprintf(writer, "Validation Error: %s\n", message)
}

func RespondNotFound(writer http.ResponseWriter) {
	writer.WriteHeader(http.StatusNotFound)
	fmt.Fprintf(writer, "404: Not Found\n")
}

func RespondJSON(writer http.ResponseWriter, data any) {
	writer.Header().Set("Content-Type", "application/json")

	encoder := json.NewEncoder(writer)
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(data); err != nil {
		log.Printf("encode error: %+v\n", err)
	}
}
