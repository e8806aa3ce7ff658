package mdexport

// DefaultMarkdown is the sample document a new editor session starts with.
const DefaultMarkdown = "# Markdown to Document Converter\n" +
	"\n" +
	"This is a live editor. Your markdown will be rendered as you type.\n" +
	"\n" +
	"## Features\n" +
	"\n" +
	"- **Live Preview:** See your rendered markdown in real-time.\n" +
	"- **Export Options:** Convert your document to PDF or DOC format.\n" +
	"- **Easy to Use:** Just paste your text and export.\n" +
	"\n" +
	"### Example List\n" +
	"\n" +
	"1. First item\n" +
	"2. Second item\n" +
	"3. Third item\n" +
	"\n" +
	"- Unordered list item 1\n" +
	"- Unordered list item 2\n" +
	"\n" +
	"> This is a blockquote. It's great for highlighting important information.\n" +
	"\n" +
	"And here is some code:\n" +
	"\n" +
	"```javascript\n" +
	"function greet(name) {\n" +
	"  console.log(`Hello, ${name}!`);\n" +
	"}\n" +
	"\n" +
	"greet('World');\n" +
	"```\n" +
	"\n" +
	"Enjoy using the converter!\n"
