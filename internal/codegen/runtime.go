package codegen

// runtimeFragment is one JS helper the generated code may depend on.
// Fragments are emitted in declaration order, after their dependencies.
type runtimeFragment struct {
	name     string
	deps     []string
	code     string // used for every target unless overridden
	clientJS string // client-specific body, when the helper differs per target
}

// runtimeOrder fixes the emission order of helper fragments
var runtimeOrder = []string{
	"result",
	"propagate",
	"len",
	"range",
	"slice",
	"sleep",
	"timeout",
	"channel",
	"select",
	"signal",
	"el",
	"mount",
	"render",
	"rpc_client",
	"serve",
}

var runtimeFragments = map[string]*runtimeFragment{
	"result": {
		name: "result",
		code: `const Ok = (value) => ({ _tag: "Ok", value });
const Err = (error) => ({ _tag: "Err", error });
const Some = (value) => ({ _tag: "Some", value });
const None = { _tag: "None" };
`,
	},
	"propagate": {
		name: "propagate",
		deps: []string{"result"},
		code: `function __propagate(v) {
  if (v && (v._tag === "Err" || v._tag === "None")) throw { __propagate: true, value: v };
  if (v && (v._tag === "Ok" || v._tag === "Some")) return v.value;
  return v;
}
`,
	},
	"len": {
		name: "len",
		code: `function __len(v) {
  if (v == null) return 0;
  if (typeof v.length === "number") return v.length;
  if (typeof v.size === "number") return v.size;
  return Object.keys(v).length;
}
`,
	},
	"range": {
		name: "range",
		code: `function __range(start, end, inclusive) {
  const out = [];
  const stop = inclusive ? end + 1 : end;
  for (let i = start; i < stop; i++) out.push(i);
  return out;
}
`,
	},
	"slice": {
		name: "slice",
		code: `function __slice(v, start, stop, step) {
  const out = [];
  const len = v.length;
  if (start == null) start = 0;
  if (start < 0) start += len;
  if (stop == null) stop = len;
  if (stop < 0) stop += len;
  if (step == null) step = 1;
  for (let i = start; step > 0 ? i < stop : i > stop; i += step) out.push(v[i]);
  return typeof v === "string" ? out.join("") : out;
}
`,
	},
	"sleep": {
		name: "sleep",
		code: `const __sleep = (ms) => new Promise((resolve) => setTimeout(resolve, ms));
`,
	},
	"timeout": {
		name: "timeout",
		code: `const __timeout = (ms) => new Promise((_, reject) =>
  setTimeout(() => reject(new Error("timed out after " + ms + "ms")), ms));
`,
	},
	"channel": {
		name: "channel",
		code: `class __Channel {
  constructor() {
    this.buffer = [];
    this.takers = [];
  }
  send(value) {
    if (this.takers.length > 0) {
      this.takers.shift()(value);
    } else {
      this.buffer.push(value);
    }
    return Promise.resolve();
  }
  recv() {
    if (this.buffer.length > 0) {
      return Promise.resolve(this.buffer.shift());
    }
    return new Promise((resolve) => this.takers.push(resolve));
  }
  tryRecv() {
    if (this.buffer.length > 0) return { ok: true, value: this.buffer.shift() };
    return { ok: false };
  }
}
const Channel = () => new __Channel();
`,
	},
	"select": {
		name: "select",
		deps: []string{"channel", "timeout"},
		code: `async function __select(cases) {
  let fallback = null;
  for (const c of cases) {
    if (c.kind === "default") { fallback = c; continue; }
    if (c.kind === "recv") {
      const r = c.ch.tryRecv();
      if (r.ok) return c.body(r.value);
    }
    if (c.kind === "send") {
      await c.ch.send(c.value());
      return c.body();
    }
  }
  if (fallback) return fallback.body();
  const waiters = [];
  for (const c of cases) {
    if (c.kind === "recv") waiters.push(c.ch.recv().then((v) => () => c.body(v)));
    if (c.kind === "timeout") waiters.push(__sleep(c.ms).then(() => () => c.body()));
  }
  const winner = await Promise.race(waiters);
  return winner();
}
`,
	},
	"signal": {
		name: "signal",
		code: `let __activeEffect = null;
function __signal(initial) {
  let value = initial;
  const subs = new Set();
  return {
    get value() {
      if (__activeEffect) subs.add(__activeEffect);
      return value;
    },
    set value(next) {
      value = next;
      for (const fn of [...subs]) fn();
    },
  };
}
function __effect(fn) {
  const run = () => {
    const prev = __activeEffect;
    __activeEffect = run;
    try { fn(); } finally { __activeEffect = prev; }
  };
  run();
}
`,
	},
	"el": {
		name: "el",
		code: `function __el(tag, attrs, ...children) {
  if (typeof tag === "function") {
    return tag(attrs || {}, children);
  }
  return { tag, attrs: attrs || {}, children: children.flat(Infinity) };
}
`,
		clientJS: `function __appendChild(parent, child) {
  if (child == null || child === false) return;
  if (Array.isArray(child)) { for (const c of child) __appendChild(parent, c); return; }
  if (typeof child === "function") {
    const anchor = document.createTextNode("");
    parent.appendChild(anchor);
    let nodes = [];
    __effect(() => {
      for (const n of nodes) n.remove();
      nodes = [];
      const frag = document.createDocumentFragment();
      __appendChild(frag, child());
      nodes = [...frag.childNodes];
      anchor.after(...nodes);
    });
    return;
  }
  if (child instanceof Node) { parent.appendChild(child); return; }
  parent.appendChild(document.createTextNode(String(child)));
}
function __el(tag, attrs, ...children) {
  if (typeof tag === "function") {
    return tag(attrs || {}, children);
  }
  const node = document.createElement(tag);
  for (const [key, raw] of Object.entries(attrs || {})) {
    if (key.startsWith("on:")) {
      node.addEventListener(key.slice(3), raw);
    } else if (key.startsWith("use:")) {
      raw(node);
    } else if (typeof raw === "function") {
      __effect(() => node.setAttribute(key, raw()));
    } else {
      node.setAttribute(key, raw);
    }
  }
  for (const child of children) __appendChild(node, child);
  return node;
}
`,
	},
	"mount": {
		name: "mount",
		deps: []string{"el", "signal"},
		code: `function __mount(selector, node) {
  const root = document.querySelector(selector);
  root.textContent = "";
  __appendChild(root, node);
}
`,
	},
	"render": {
		name: "render",
		deps: []string{"el"},
		code: `function __render_html(node) {
  if (node == null || node === false) return "";
  if (Array.isArray(node)) return node.map(__render_html).join("");
  if (typeof node === "function") return __render_html(node());
  if (typeof node !== "object") return String(node);
  const attrs = Object.entries(node.attrs)
    .filter(([k]) => !k.includes(":"))
    .map(([k, v]) => ' ' + k + '="' + String(typeof v === "function" ? v() : v) + '"')
    .join("");
  const inner = node.children.map(__render_html).join("");
  return "<" + node.tag + attrs + ">" + inner + "</" + node.tag + ">";
}
`,
	},
	"rpc_client": {
		name: "rpc_client",
		code: `async function __rpc(name, args) {
  const res = await fetch("/__rpc/" + name, {
    method: "POST",
    headers: { "Content-Type": "application/json" },
    body: JSON.stringify(args),
  });
  if (!res.ok) throw new Error("rpc " + name + " failed: " + res.status);
  return await res.json();
}
`,
	},
	"serve": {
		name: "serve",
		code: `function __serve(handlers, port = 3000) {
  const http = require("node:http");
  const server = http.createServer(async (req, res) => {
    if (req.method === "POST" && req.url.startsWith("/__rpc/")) {
      const name = req.url.slice("/__rpc/".length);
      const fn = handlers[name];
      if (!fn) { res.writeHead(404); res.end(); return; }
      let body = "";
      req.on("data", (chunk) => { body += chunk; });
      req.on("end", async () => {
        try {
          const result = await fn(...JSON.parse(body || "[]"));
          res.writeHead(200, { "Content-Type": "application/json" });
          res.end(JSON.stringify(result === undefined ? null : result));
        } catch (err) {
          res.writeHead(500, { "Content-Type": "application/json" });
          res.end(JSON.stringify({ error: String(err && err.message || err) }));
        }
      });
      return;
    }
    res.writeHead(404);
    res.end();
  });
  server.listen(port);
  return server;
}
`,
	},
}
