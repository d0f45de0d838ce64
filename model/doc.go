// Package model defines the provider-agnostic abstractions for talking to
// language models that steer minions.
//
// Core goals:
//   - Keep request/response shapes minimal and transport independent
//   - Normalize tool / function call representation (ToolDefinition, ToolCall)
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Vendors (OpenAI, Anthropic) implement Model in sub-packages so decision
// providers stay decoupled from SDKs.
package model
