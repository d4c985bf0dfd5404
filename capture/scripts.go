package capture

// structureScript walks the live DOM from document.body and serialises the
// structure evidence tree. Depth and child counts are bounded on the JS side
// so a pathological page cannot blow up the payload; the builder applies its
// own budgets on top.
const structureScript = `(maxDepth) => {
	const styleProps = [
		'display','position','flex-direction','justify-content','align-items',
		'gap','grid-template-columns','grid-template-rows','width','max-width',
		'min-width','height','min-height','top','right','bottom','left',
		'margin-top','margin-right','margin-bottom','margin-left',
		'padding-top','padding-right','padding-bottom','padding-left',
		'font-family','font-size','font-weight','line-height','letter-spacing',
		'text-align','text-transform','color','background-color','background',
		'border-radius','border-top','border-right','border-bottom','border-left',
		'box-shadow','opacity','overflow','z-index','visibility'
	];
	const selectorFor = (el) => {
		if (el.id) return '#' + el.id;
		const cls = (el.className && typeof el.className === 'string')
			? el.className.trim().split(/\s+/).filter(Boolean) : [];
		const tag = el.tagName.toLowerCase();
		return cls.length ? tag + '.' + cls[0] : tag;
	};
	const ownText = (el) => {
		let out = '';
		for (const n of el.childNodes) {
			if (n.nodeType === 3) out += n.textContent;
		}
		return out.trim().slice(0, 400);
	};
	const visit = (el, depth) => {
		if (depth > maxDepth) return null;
		const rect = el.getBoundingClientRect();
		const cs = getComputedStyle(el);
		const style = {};
		for (const p of styleProps) {
			const v = cs.getPropertyValue(p);
			if (v) style[p] = v;
		}
		const attrs = {};
		for (const name of ['href','src','alt','type','placeholder','value',
			'role','aria-label','aria-expanded','aria-haspopup','disabled','name']) {
			const v = el.getAttribute(name);
			if (v !== null) attrs[name] = v;
		}
		const node = {
			tag: el.tagName.toLowerCase(),
			id: el.id || undefined,
			classes: (el.className && typeof el.className === 'string')
				? el.className.trim().split(/\s+/).filter(Boolean) : undefined,
			selector: selectorFor(el),
			attrs: Object.keys(attrs).length ? attrs : undefined,
			rect: {
				x: rect.x + window.scrollX,
				y: rect.y + window.scrollY,
				width: rect.width,
				height: rect.height
			},
			style: style,
			text: ownText(el) || undefined,
			children: []
		};
		let count = 0;
		for (const child of el.children) {
			if (count >= 80) break;
			const c = visit(child, depth + 1);
			if (c) { node.children.push(c); count++; }
		}
		if (!node.children.length) delete node.children;
		return node;
	};
	return JSON.stringify(visit(document.body, 0));
}`

// landmarkScript detects HTML5 landmark elements and reports their
// bounding boxes as coarse section hints.
const landmarkScript = `() => {
	const tags = ['header', 'nav', 'main', 'article', 'section', 'aside', 'footer'];
	const results = [];
	for (const tag of tags) {
		const els = document.querySelectorAll(tag);
		let i = 0;
		for (const el of els) {
			const rect = el.getBoundingClientRect();
			if (rect.width < 1 || rect.height < 1) continue;
			results.push({
				name: els.length > 1 ? tag + '-' + i : tag,
				role: el.getAttribute('role') || '',
				rect: {
					x: rect.x + window.scrollX,
					y: rect.y + window.scrollY,
					width: rect.width,
					height: rect.height
				}
			});
			i++;
		}
	}
	return JSON.stringify(results);
}`

// layoutScript records grid, flex, visibility, and container sizing for
// the current viewport. Run once per emulated breakpoint.
const layoutScript = `() => {
	const selectorFor = (el) => {
		if (el.id) return '#' + el.id;
		const cls = (el.className && typeof el.className === 'string')
			? el.className.trim().split(/\s+/).filter(Boolean) : [];
		const tag = el.tagName.toLowerCase();
		return cls.length ? tag + '.' + cls[0] : tag;
	};
	const grids = [], flexes = [], visibility = [], containers = [];
	const all = document.body.querySelectorAll('*');
	let scanned = 0;
	for (const el of all) {
		if (++scanned > 3000) break;
		const cs = getComputedStyle(el);
		const sel = selectorFor(el);
		if (cs.display === 'grid' || cs.display === 'inline-grid') {
			grids.push({
				selector: sel,
				columns: cs.gridTemplateColumns,
				rows: cs.gridTemplateRows,
				gap: cs.gap,
				width: el.getBoundingClientRect().width
			});
		} else if (cs.display === 'flex' || cs.display === 'inline-flex') {
			flexes.push({
				selector: sel,
				direction: cs.flexDirection,
				wrap: cs.flexWrap,
				justify: cs.justifyContent,
				align: cs.alignItems,
				gap: cs.gap
			});
		}
		if (cs.display === 'none' || cs.visibility === 'hidden' || cs.opacity === '0') {
			visibility.push({
				selector: sel,
				display: cs.display,
				visibility: cs.visibility,
				opacity: cs.opacity
			});
		}
		const rect = el.getBoundingClientRect();
		if (rect.width > window.innerWidth * 0.5 && el.children.length > 1) {
			containers.push({
				selector: sel,
				width: rect.width + 'px',
				max_width: cs.maxWidth,
				margin: cs.margin,
				padding: cs.padding
			});
		}
	}
	return JSON.stringify({
		grid_layouts: grids.slice(0, 200),
		flex_layouts: flexes.slice(0, 400),
		visibility_states: visibility.slice(0, 400),
		layout_containers: containers.slice(0, 100)
	});
}`
