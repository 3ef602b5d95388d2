package main

// General API documentation for swaggo. The generated document lives in
// internal/apidocs and is served under /swagger/ when enabled.
//
// @title           predictd API
// @version         1.0
// @description     HTTP API for single-model LLM text prediction.
//
// @contact.name   predictd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
