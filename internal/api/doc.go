// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP client for the document chat backend.
//
// Each method is a single request/response call. Failures of any kind
// (transport, non-2xx status, undecodable body) come back as *Error, whose
// message is the backend's "detail" text when it sent one, or a fixed
// per-operation fallback such as "File upload failed". Nothing is retried.
//
// Endpoints:
//
//	POST   /api/upload            multipart field "file"
//	GET    /api/files
//	DELETE /api/files/{id}
//	POST   /api/chat              {question, file_id, keywords, metadata_filter, k}
//	GET    /api/health
//	POST   /api/admin/clear_all   header "admin-token"
package api
