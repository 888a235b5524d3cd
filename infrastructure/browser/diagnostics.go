package browser

import (
	"encoding/json"
	"fmt"

	"webrunner/domain/entities"
)

// collectElementsScript gathers the page's interactive elements for
// failure diagnostics. It is an expression so both backends can run it:
// playwright evaluates it directly, selenium prepends "return ".
const collectElementsScript = `(function() {
	const elements = [];
	const seen = new Set();
	const selectors = [
		'button', 'a', 'input', 'select', 'textarea',
		'[role="button"]', '[onclick]', '[data-testid]', '[data-qa]'
	];

	selectors.forEach(selector => {
		try {
			document.querySelectorAll(selector).forEach(el => {
				const style = window.getComputedStyle(el);
				if (style.display === 'none' || style.visibility === 'hidden') return;

				const rect = el.getBoundingClientRect();
				const isVisible = rect.width > 0 && rect.height > 0;

				const tagName = el.tagName.toLowerCase();
				let unique = tagName;
				if (el.id) {
					unique = '#' + el.id;
				} else if (el.getAttribute('data-testid')) {
					unique = '[data-testid="' + el.getAttribute('data-testid') + '"]';
				} else if (el.getAttribute('data-qa')) {
					unique = '[data-qa="' + el.getAttribute('data-qa') + '"]';
				} else if (el.getAttribute('name')) {
					unique = tagName + '[name="' + el.getAttribute('name') + '"]';
				} else if (el.className && typeof el.className === 'string' && el.className.trim()) {
					unique = tagName + '.' + el.className.trim().split(/\s+/)[0];
				}

				if (seen.has(unique) || elements.length >= 50) return;
				seen.add(unique);

				const attrs = {};
				for (let attr of el.attributes) {
					if (attr.name.startsWith('data-') || attr.name === 'id' ||
						attr.name === 'name' || attr.name === 'type') {
						attrs[attr.name] = attr.value;
					}
				}

				elements.push({
					tag_name: tagName,
					selector: unique,
					text: (el.textContent || el.value || el.placeholder || '').trim().substring(0, 100),
					attributes: attrs,
					is_visible: isVisible
				});
			});
		} catch (e) {}
	});

	return elements;
})()`

// parseElements converts the raw script result into entities via a JSON
// round trip, which tolerates the differing value types the two
// backends hand back.
func parseElements(raw interface{}) ([]entities.PageElement, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode element snapshot: %w", err)
	}
	var elements []entities.PageElement
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, fmt.Errorf("failed to decode element snapshot: %w", err)
	}
	return elements, nil
}
