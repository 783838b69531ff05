// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package relay provides a declarative dispatch pipeline for handling
// HTTP requests and consumed queue messages with the same procedures.
//
// A procedure declares everything the pipeline needs to know about one
// unit of work: which input slots it reads and how they validate, an
// optional output contract, the error conditions it can classify, the
// middleware it runs under and, finally, the handler itself. Procedures
// are registered on a [router.Router] and executed by a
// [pipeline.Executor], which drives validation, middleware, invocation
// and error classification identically regardless of transport.
//
// # Building a procedure
//
//	echo := procedure.New().
//		Input(rest.SlotBody, validate.Struct[EchoRequest]()).
//		Error(procedure.StatusKey(404), notFound).
//		On(r)
//
//	_, err := echo.Handle(http.MethodPost, "/echo", procedure.HandlerFunc(handle))
//
// # Running it
//
// The [rest] package serves a router over HTTP, while the [queue]
// package feeds it from consumed messages (with SQS and Pub/Sub
// consumers under [queue/sqs] and [queue/pubsub]). Both produce
// [App] implementations which [Run] and [Execute] know how to
// configure and supervise.
package relay
