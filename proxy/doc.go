// Package proxy provides the request and response abstractions used by aws
// lambda functions acting as aws api gateway (rest) proxy integrations.
//
// Request wraps an events.APIGatewayProxyRequest and exposes case insensitive
// accessors for headers, query string and path parameters, body parsing, query
// string validation and cookie extraction.
//
// Response accumulates a status, headers, cookies and a body and emits exactly
// one events.APIGatewayProxyResponse when sent.
package proxy
