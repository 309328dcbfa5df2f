// Package http implements the HTTP handlers of the soundscape survey
// service. Handlers stay thin: they decode and validate requests, call the
// dataset and health services, and map service errors to RFC 7807 problem
// responses through the shared error handler.
//
// # Routes
//
//	GET    /api/sources                    bundled dataset sources
//	POST   /api/sources/{name}             load a bundled source
//	GET    /api/datasets                   list stored datasets
//	POST   /api/datasets                   upload a CSV or XLSX file
//	GET    /api/datasets/{id}              dataset summary
//	DELETE /api/datasets/{id}              delete a dataset
//	POST   /api/datasets/{id}/process      run the pipeline
//	POST   /api/datasets/{id}/report       profile report (json or html)
//	POST   /api/datasets/{id}/export       processed data (csv or xlsx)
//	POST   /api/datasets/{id}/plot         circumplex plot data
//	GET    /api/datasets/{id}/locations    responses per location
//	GET    /api/datasets/{id}/map          georeferenced responses
//	GET    /api/datasets/{id}/overview     info, exclusions, locations and map
//
// # Testing
//
// Handlers are tested with httptest against testify mocks of the service
// interfaces.
package http
