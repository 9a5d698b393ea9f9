// Copyright 2023 uhppoted@twyst.co.za. All rights reserved.
// Use of this source code is governed by an MIT-style license
// that can be found in the LICENSE file.

/*
Package uhppoted-app-tasks is a small task management dashboard that keeps its tasks, categories, users
and comments in a Google Sheets spreadsheet.

uhppoted-app-tasks serves the dashboard over HTTP and also provides command line access to the
spreadsheet tabs. A local SQLite database or an in-memory workbook can stand in for the spreadsheet
when there are no Google credentials.

uhppoted-app-tasks supports the following commands:

  - run, to serve the dashboard
  - authorise, to authorise application access to the Google Sheets spreadsheet
  - get, to download a spreadsheet tab as a TSV file
  - put, to append the records in a TSV file to a spreadsheet tab
  - export, to write every tab plus a task summary to an XLSX workbook
  - version, to display the current version
*/
package tasks
