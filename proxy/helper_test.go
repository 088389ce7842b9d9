package proxy

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
)

func testEvent(method HttpMethod, path string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod: method.String(),
		Path:       path,
		Headers:    map[string]string{},
	}
}

func dummy(v interface{}, category string) interface{} {
	file := fmt.Sprintf("testdata/%s.json", category)

	content, err := os.ReadFile(file)
	if err != nil {
		log.Fatal(err)
	}

	err = json.Unmarshal(content, v)
	if err != nil {
		log.Fatal(err)
	}

	return v
}

func dummyAPIGatewayProxyRequest(category string) events.APIGatewayProxyRequest {
	return *dummy(&events.APIGatewayProxyRequest{}, category).(*events.APIGatewayProxyRequest)
}

type recorder struct {
	calls    int
	response events.APIGatewayProxyResponse
}

func (r *recorder) emit(response events.APIGatewayProxyResponse) {
	r.calls++
	r.response = response
}
