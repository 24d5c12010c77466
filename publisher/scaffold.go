package publisher

import (
	"fmt"
	"strings"
)

const mitLicense = `MIT License

Copyright (c) %d %s

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
`

func licenseText(year int, owner string) string {
	if owner == "" {
		owner = "Maintainer"
	}
	return fmt.Sprintf(mitLicense, year, owner)
}

func readmeText(name, brief, pagesURL, branch string) string {
	summary := strings.TrimSpace(brief)
	if summary == "" {
		summary = "Generated static site."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", name))
	sb.WriteString("## Summary\n\n")
	sb.WriteString(summary)
	sb.WriteString("\n\n## Usage\n\n")
	sb.WriteString(fmt.Sprintf("- Live site: %s\n", pagesURL))
	sb.WriteString(fmt.Sprintf("- Everything lives in `index.html`; edit it and push to `%s` to redeploy.\n", branch))
	sb.WriteString("\n## License\n\nReleased under the MIT License. See `LICENSE`.\n")
	return sb.String()
}
