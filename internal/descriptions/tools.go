package descriptions

import "sort"

// Tool descriptions shown to MCP clients, with examples and workflows

const (
	FormExtractFileDescription = `Read the survey form fields of one PDF and return them as a single record.

**When to use:** You have one filled-in survey form and need its document number, section corner, township, range, county, the option lists of the choice fields, and whether a survey image was attached.

**What you get:** A record with the filename, one value per configured field (empty when the field is missing), the option list of every configured choice field, and the image flag as both a boolean and "Y"/"N".

**Examples:**
• Read one form: "Extract the fields of survey-2024-118.pdf"
• Check the attachment: "Does the Survey Image button in plat-7.pdf hold a picture?"

**Common workflows:**
1. Validate → Extract → Review values
2. Extract → Compare Township against its option list → Flag typos

**Best practices:** A missing field is not an error; only a missing or unparseable document is.`

	FormExtractDirectoryDescription = `Extract every PDF form in a directory in one pass.

**When to use:** A folder of survey forms needs to become spreadsheet rows.

**What you get:** One record per document that could be read, a failure entry for each document that could not, and the attempted and succeeded counts.

**Examples:**
• Process the inbox: "Extract all forms in the default directory"
• Narrow the pass: "Extract only forms whose filename mentions adams"

**Common workflows:**
1. Search → Extract directory → Export rows
2. Extract directory → Re-run failed documents individually with form_validate_file

**Best practices:** Failures never stop the pass; read the failures list before trusting the totals.`

	FormValidateFileDescription = `Check whether a file can be handed to the form extractor.

**When to use:** Before extracting a file of unknown origin, or to explain why a batch skipped a document.

**What you get:** Valid true or false, plus the failure class (SOURCE_NOT_FOUND or MALFORMED_STRUCTURE) and a message.

**Examples:**
• "Is upload-17.pdf a readable PDF?"
• "Why did scan-03.pdf fail in the last batch?"

**Best practices:** Validation opens the file with an independent parser, so a pass means the extractor can at least reach the document catalog in most cases.`

	FormSearchDirectoryDescription = `List the PDF files in a directory, optionally filtered by filename.

**When to use:** To see which forms are waiting before extracting them.

**What you get:** Path, name, size and modification time of each PDF that passes the size and type checks.

**Examples:**
• "List the forms in the default directory"
• "Find forms with 'township 12' in the name"

**Best practices:** Query words are matched against filename words separated by spaces, dashes, underscores, dots or brackets.`

	FormServerInfoDescription = `Describe this server: its configured fields, tools, limits and the PDFs in the default directory.

**When to use:** At the start of a session, to learn which form fields are read and which documents are available.

**What you get:** Server name and version, the default directory, the maximum file size, the field names read from each form, the tool list, and up to 100 PDFs from the default directory.

**Best practices:** The directory listing is cached for five minutes; use form_search_directory for a fresh listing.`
)

// Tool names
const (
	ToolFormExtractFile      = "form_extract_file"
	ToolFormExtractDirectory = "form_extract_directory"
	ToolFormValidateFile     = "form_validate_file"
	ToolFormSearchDirectory  = "form_search_directory"
	ToolFormServerInfo       = "form_server_info"
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	ToolFormExtractFile:      FormExtractFileDescription,
	ToolFormExtractDirectory: FormExtractDirectoryDescription,
	ToolFormValidateFile:     FormValidateFileDescription,
	ToolFormSearchDirectory:  FormSearchDirectoryDescription,
	ToolFormServerInfo:       FormServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the tool names in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
