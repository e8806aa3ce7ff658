// Package server exposes an mdexport.Session over HTTP.
//
// Routes:
//
//	GET    /                      editor page
//	GET    /assets/preview.css    preview stylesheet
//	GET    /ws                    live preview socket
//	GET    /api/status            {loading, mounted}
//	GET    /api/document          {text, html, loading, mounted}
//	PUT    /api/document          {text}
//	POST   /api/document/import   {html}
//	POST   /api/preview/mount     {width}
//	DELETE /api/preview/mount
//	POST   /api/export/doc        {filename, href}
//	POST   /api/export/pdf        application/pdf attachment
//
// Socket clients send {"type":"mount","width":N}, {"type":"unmount"} and
// {"type":"edit","text":"..."}; the server pushes {"type":"preview",...}
// after every session change.
package server
