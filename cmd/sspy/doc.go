// Command sspy runs the soundscape survey pipeline over local CSV or XLSX
// files.
//
//	sspy validate survey.csv --excluded-out excluded.csv
//	sspy profile survey.xlsx --level full --html report.html
//	sspy export survey.csv --format xlsx --out processed.xlsx
//	sspy locations survey.csv
//
// Every command takes the pipeline flags (--columns, --where, --drop-missing,
// --no-validate, --no-iso, --paq-min, --paq-max, --id-column,
// --reject-uniform) and prints a summary table. Defaults come from the same
// YAML file and SSPY_* environment as the server.
package main
