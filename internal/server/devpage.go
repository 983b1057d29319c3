package server

// DevInstruction is shown when only a development build exists.
const DevInstruction = `Please run "npm run dev" and use the port it provides`

// DevPage is served for application routes when the development artifact
// directory exists but no production build does. This server is not the
// development server; the page only says where to go instead.
const DevPage = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Development build detected</title>
</head>
<body>
    <div id="root"><h1>` + DevInstruction + `</h1></div>
    <p>This server only serves production builds. Run "npm run build" to serve the app from here.</p>
    <script>
        console.log('Development mode detected - the app should be served with "npm run dev" on a different port');
    </script>
</body>
</html>
`
